// internal/workers/conversation/answer-location/config.go
package answerlocation

type Config struct {
	// QueryPrefix starts every location question sent to the agent.
	QueryPrefix string
	QuerySuffix string
}

func LoadConfig() *Config {
	return &Config{
		QueryPrefix: "我的位置資訊是：",
		QuerySuffix: "附近",
	}
}
