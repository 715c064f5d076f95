// internal/common/agent/normalize.go
package agent

import (
	"encoding/json"
	"strings"
)

// Normalize cleans agent output: trims it, unwraps a fully quoted string
// (JSON-decoding it when possible) and converts CRLF to LF. The steps repeat
// until nothing changes, so Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

// normalizeOnce never grows its input, which bounds the loop above.
func normalizeOnce(s string) string {
	s = strings.TrimSpace(s)

	if isQuoteWrapped(s) {
		var decoded string
		if s[0] == '"' && json.Unmarshal([]byte(s), &decoded) == nil {
			s = decoded
		} else if len(s) >= 2 {
			s = s[1 : len(s)-1]
		} else {
			s = ""
		}
	}

	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

func isQuoteWrapped(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return (first == '"' && last == '"') || (first == '\'' && last == '\'')
}
