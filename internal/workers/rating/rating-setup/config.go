// internal/workers/rating/rating-setup/config.go
package ratingsetup

import "line-parking-bot/internal/common/rating"

type Config struct {
	// Options is the number of quick reply buttons, one per score.
	Options int
}

func LoadConfig() *Config {
	return &Config{
		Options: rating.MaxScore,
	}
}
