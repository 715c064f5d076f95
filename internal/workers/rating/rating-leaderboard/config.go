// internal/workers/rating/rating-leaderboard/config.go
package ratingleaderboard

type Config struct {
	TopN    int
	AltText string
}

func LoadConfig() *Config {
	return &Config{
		TopN:    5,
		AltText: "廁所排行榜 💩",
	}
}
