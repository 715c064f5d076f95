// internal/workers/conversation/answer-text/models.go
package answertext

type Input struct {
	UserID     string `json:"userId"`
	SessionKey string `json:"sessionKey"`
	Query      string `json:"query"`
}

type Output struct {
	Structured   bool `json:"structured"`
	ParkingCount int  `json:"parkingCount"`
	ToiletCount  int  `json:"toiletCount"`
	HasSummary   bool `json:"hasSummary"`
}
