// internal/workers/rating/rating-submit/models.go
package ratingsubmit

type Input struct {
	ReplyToken string `json:"replyToken"`
	UserID     string `json:"userId"`
	Text       string `json:"text"`
}

type Output struct {
	Place string `json:"place"`
	Score int    `json:"score"`
}
