// internal/common/rating/commands.go
package rating

import (
	"fmt"
	"strings"

	apperrors "line-parking-bot/internal/common/errors"
)

const (
	SetupPrefix      = "評分準備|"
	SubmitPrefix     = "評分 "
	LeaderboardQuery = "查看排行"

	ErrorReply     = "評分發生錯誤，請稍後再試。"
	NoRecordsReply = "目前還沒有任何評分紀錄。"
)

// SetupCommand is "評分準備|<place>|<address>". The address is optional.
type SetupCommand struct {
	Place   string
	Address string
}

func IsSetup(text string) bool {
	return strings.HasPrefix(text, SetupPrefix)
}

func IsSubmit(text string) bool {
	return strings.HasPrefix(text, SubmitPrefix)
}

func IsLeaderboardQuery(text string) bool {
	return strings.TrimSpace(text) == LeaderboardQuery
}

func ParseSetup(text string) (SetupCommand, error) {
	if !IsSetup(text) {
		return SetupCommand{}, apperrors.NewInvalidRatingCommandError("missing setup prefix")
	}

	parts := strings.SplitN(text, "|", 3)
	cmd := SetupCommand{Place: strings.TrimSpace(parts[1])}
	if len(parts) == 3 {
		cmd.Address = strings.TrimSpace(parts[2])
	}
	if cmd.Place == "" {
		return SetupCommand{}, apperrors.NewInvalidRatingCommandError("empty place name")
	}
	return cmd, nil
}

// ParseSubmit reads "評分 <place> <glyphs>". The place may contain spaces;
// the score is the glyph count of the last token.
func ParseSubmit(text string) (Record, error) {
	if !IsSubmit(text) {
		return Record{}, apperrors.NewInvalidRatingCommandError("missing submit prefix")
	}

	rest := strings.TrimSpace(strings.TrimPrefix(text, SubmitPrefix))
	i := strings.LastIndex(rest, " ")
	if i < 0 {
		return Record{}, apperrors.NewInvalidRatingCommandError("missing score")
	}

	place := strings.TrimSpace(rest[:i])
	score := strings.Count(rest[i+1:], Glyph)
	if place == "" {
		return Record{}, apperrors.NewInvalidRatingCommandError("empty place name")
	}
	if score < MinScore || score > MaxScore {
		return Record{}, apperrors.NewInvalidRatingCommandError(fmt.Sprintf("score %d out of range", score))
	}
	return Record{Place: place, Score: float64(score)}, nil
}

func Glyphs(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(Glyph, n)
}

func SetupPrompt(place string) string {
	return fmt.Sprintf("你選擇評分的廁所是：「%s」，請給分（💩越多越讚）：", place)
}

// SubmitText is the message a quick reply option sends back for a score of n.
func SubmitText(place string, n int) string {
	return SubmitPrefix + place + " " + Glyphs(n)
}

func ThankYou(record Record) string {
	return fmt.Sprintf("感謝您對「%s」的評分！你的評分是：💩 %d 分，對於其他人來說非常有幫助！", record.Place, int(record.Score))
}
