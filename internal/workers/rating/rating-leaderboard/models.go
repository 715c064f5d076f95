// internal/workers/rating/rating-leaderboard/models.go
package ratingleaderboard

type Input struct {
	ReplyToken string `json:"replyToken"`
	UserID     string `json:"userId"`
}

type Output struct {
	Places []string `json:"places"`
}
