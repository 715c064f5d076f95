// internal/workers/conversation/answer-location/models.go
package answerlocation

type Input struct {
	UserID     string  `json:"userId"`
	SessionKey string  `json:"sessionKey"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Title      string  `json:"title,omitempty"`
	Address    string  `json:"address,omitempty"`
}

type Output struct {
	Query        string `json:"query"`
	ParkingCount int    `json:"parkingCount"`
	ToiletCount  int    `json:"toiletCount"`
	HasSummary   bool   `json:"hasSummary"`
}
