// internal/workers/conversation/answer-text/config.go
package answertext

// DefaultMarker is the phrase the agent emits when it found facilities to show.
const DefaultMarker = "停車寶已為尼找到相關資訊"

type Config struct {
	Marker string
}

func LoadConfig() *Config {
	return &Config{
		Marker: DefaultMarker,
	}
}
