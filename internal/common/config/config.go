// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Line       LineConfig       `mapstructure:"line"`
	Agent      AgentConfig      `mapstructure:"agent"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	WorkerPool WorkerPoolConfig `mapstructure:"worker_pool"`
	Session    SessionConfig    `mapstructure:"session"`
	Cards      CardsConfig      `mapstructure:"cards"`
	Rating     RatingConfig     `mapstructure:"rating"`
	Webhook    WebhookConfig    `mapstructure:"webhook"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// LineConfig holds the Messaging API channel credentials.
type LineConfig struct {
	ChannelAccessToken string `mapstructure:"channel_access_token"`
	ChannelSecret      string `mapstructure:"channel_secret"`
	APIBaseURL         string `mapstructure:"api_base_url"`
	Timeout            int    `mapstructure:"timeout"` // milliseconds
	LoadingSeconds     int    `mapstructure:"loading_seconds"`
}

// AgentConfig points at the LLM agent service.
type AgentConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// HTTPConfig tunes the shared outbound transport.
type HTTPConfig struct {
	ConnectTimeout        int `mapstructure:"connect_timeout"`         // milliseconds
	TLSHandshakeTimeout   int `mapstructure:"tls_handshake_timeout"`   // milliseconds
	ResponseHeaderTimeout int `mapstructure:"response_header_timeout"` // milliseconds
	MaxIdleConns          int `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost   int `mapstructure:"max_idle_conns_per_host"`
}

type WorkerPoolConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
	Timeout   int `mapstructure:"timeout"` // milliseconds, per task
}

type SessionConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type CardsConfig struct {
	ParkingImageURL string `mapstructure:"parking_image_url"`
	ToiletImageURL  string `mapstructure:"toilet_image_url"`
}

// RatingConfig selects where toilet ratings are stored.
type RatingConfig struct {
	Backend  string      `mapstructure:"backend"`   // "sheet" or "postgres"
	CacheTTL int         `mapstructure:"cache_ttl"` // milliseconds, 0 disables the cache
	Sheet    SheetConfig `mapstructure:"sheet"`
}

type SheetConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"`
	SheetKey        string `mapstructure:"sheet_key"`
	WorksheetName   string `mapstructure:"worksheet_name"`
	APIBaseURL      string `mapstructure:"api_base_url"`
	Timeout         int    `mapstructure:"timeout"` // milliseconds
}

type WebhookConfig struct {
	DedupTTL int `mapstructure:"dedup_ttl"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether a postgres host was configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
