// internal/workers/rating/rating-setup/models.go
package ratingsetup

type Input struct {
	ReplyToken string `json:"replyToken"`
	UserID     string `json:"userId"`
	Text       string `json:"text"`
}

type Output struct {
	Place   string `json:"place"`
	Address string `json:"address,omitempty"`
}
