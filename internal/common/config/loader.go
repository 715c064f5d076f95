// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	RatingBackendSheet    = "sheet"
	RatingBackendPostgres = "postgres"

	defaultCardImageURL = "https://developers-resource.landpress.line.me/fx/img/01_1_cafe.png"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay, optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile looks for a .env file in the working directory, its parents and the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values the deployment traditionally passes as bare env vars.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Line.ChannelAccessToken, "LINE_CHANNEL_ACCESS_TOKEN")
	setIfEmpty(&cfg.Line.ChannelSecret, "LINE_CHANNEL_SECRET")
	setIfEmpty(&cfg.Agent.BaseURL, "LLM_API_BASE")
	setIfEmpty(&cfg.Rating.Sheet.CredentialsPath, "GCP_CREDENTIALS_PATH")
	setIfEmpty(&cfg.Rating.Sheet.SheetKey, "GCP_SHEET_KEY")
	setIfEmpty(&cfg.Cards.ToiletImageURL, "POOP_IMG_URL")
	setIfEmpty(&cfg.Cards.ParkingImageURL, "PARKING_IMG_URL")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setIfEmpty(&cfg.Database.Redis.Address, "REDIS_ADDRESS")

	// env-less fallbacks that depend on the overrides above
	if cfg.Agent.BaseURL == "" {
		cfg.Agent.BaseURL = "http://localhost:8000"
	}
	if cfg.Cards.ToiletImageURL == "" {
		cfg.Cards.ToiletImageURL = defaultCardImageURL
	}
	if cfg.Cards.ParkingImageURL == "" {
		cfg.Cards.ParkingImageURL = defaultCardImageURL
	}
}

func setIfEmpty(dst *string, envKey string) {
	if *dst != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*dst = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "line-parking-bot"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Line.APIBaseURL == "" {
		cfg.Line.APIBaseURL = "https://api.line.me"
	}
	if cfg.Line.Timeout == 0 {
		cfg.Line.Timeout = 10000
	}
	if cfg.Line.LoadingSeconds == 0 {
		cfg.Line.LoadingSeconds = 60
	}

	if cfg.Agent.Timeout == 0 {
		cfg.Agent.Timeout = 120000
	}

	if cfg.HTTP.ConnectTimeout == 0 {
		cfg.HTTP.ConnectTimeout = 5000
	}
	if cfg.HTTP.TLSHandshakeTimeout == 0 {
		cfg.HTTP.TLSHandshakeTimeout = 5000
	}
	if cfg.HTTP.ResponseHeaderTimeout == 0 {
		cfg.HTTP.ResponseHeaderTimeout = 120000
	}
	if cfg.HTTP.MaxIdleConns == 0 {
		cfg.HTTP.MaxIdleConns = 100
	}
	if cfg.HTTP.MaxIdleConnsPerHost == 0 {
		cfg.HTTP.MaxIdleConnsPerHost = 16
	}

	if cfg.WorkerPool.Workers == 0 {
		cfg.WorkerPool.Workers = 8
	}
	if cfg.WorkerPool.QueueSize == 0 {
		cfg.WorkerPool.QueueSize = 256
	}
	if cfg.WorkerPool.Timeout == 0 {
		cfg.WorkerPool.Timeout = 300000
	}

	if cfg.Session.Timezone == "" {
		cfg.Session.Timezone = "Asia/Taipei"
	}

	if cfg.Rating.Backend == "" {
		cfg.Rating.Backend = RatingBackendSheet
	}
	if cfg.Rating.Sheet.APIBaseURL == "" {
		cfg.Rating.Sheet.APIBaseURL = "https://sheets.googleapis.com"
	}
	if cfg.Rating.Sheet.Timeout == 0 {
		cfg.Rating.Sheet.Timeout = 10000
	}

	if cfg.Webhook.DedupTTL == 0 {
		cfg.Webhook.DedupTTL = 600000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Line.ChannelSecret == "" {
		return fmt.Errorf("line.channel_secret is required")
	}
	if cfg.Line.ChannelAccessToken == "" {
		return fmt.Errorf("line.channel_access_token is required")
	}

	switch cfg.Rating.Backend {
	case RatingBackendSheet:
		if cfg.Rating.Sheet.CredentialsPath == "" {
			return fmt.Errorf("rating.sheet.credentials_path is required for the sheet backend")
		}
		if cfg.Rating.Sheet.SheetKey == "" {
			return fmt.Errorf("rating.sheet.sheet_key is required for the sheet backend")
		}
	case RatingBackendPostgres:
		if !cfg.Database.Postgres.Enabled() {
			return fmt.Errorf("database.postgres.host is required for the postgres backend")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	default:
		return fmt.Errorf("rating.backend must be %q or %q, got %q", RatingBackendSheet, RatingBackendPostgres, cfg.Rating.Backend)
	}

	if cfg.WorkerPool.Workers < 1 {
		return fmt.Errorf("worker_pool.workers must be positive")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
