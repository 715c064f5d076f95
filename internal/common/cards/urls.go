// internal/common/cards/urls.go
package cards

import (
	"net/url"
	"strings"
)

const mapSearchBase = "https://maps.google.com/maps?q="

// MapSearchURL is a Google Maps search for q with every reserved character escaped.
func MapSearchURL(q string) string {
	return mapSearchBase + escapeAll(q)
}

// EnsureValidActionURI makes a URL safe for a URI action. Anything that is not an
// absolute http(s) URL with a host becomes a map search for the raw string.
func EnsureValidActionURI(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return MapSearchURL(raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return MapSearchURL(raw)
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	b.WriteString(escapePath(u.Path))

	if q := escapeQuery(u.RawQuery); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}
	return b.String()
}

// escapeAll percent-encodes everything but unreserved characters.
func escapeAll(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = escapeAll(seg)
	}
	return strings.Join(segments, "/")
}

// escapeQuery re-encodes each key and value, keeping pair order and blank values.
func escapeQuery(raw string) string {
	if raw == "" {
		return ""
	}

	var pairs []string
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		pairs = append(pairs, escapeAll(unescapeQuery(key))+"="+escapeAll(unescapeQuery(value)))
	}
	return strings.Join(pairs, "&")
}

func unescapeQuery(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}
