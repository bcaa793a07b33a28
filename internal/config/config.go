package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort  int    `mapstructure:"APP_PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	UpstreamURL     string        `mapstructure:"UPSTREAM_URL"`
	UpstreamAPIKey  string        `mapstructure:"UPSTREAM_API_KEY"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`

	StorageBackend        string        `mapstructure:"STORAGE_BACKEND"`
	StorageSQLitePath     string        `mapstructure:"STORAGE_SQLITE_PATH"`
	StorageSQLiteMaxPages int           `mapstructure:"STORAGE_SQLITE_MAX_PAGES"`
	StorageRedisAddr      string        `mapstructure:"STORAGE_REDIS_ADDR"`
	StorageRedisTTL       time.Duration `mapstructure:"STORAGE_REDIS_TTL"`
	StorageMemoryQuota    int           `mapstructure:"STORAGE_MEMORY_QUOTA_BYTES"`

	PendingMergeWindow      time.Duration `mapstructure:"PENDING_MERGE_WINDOW"`
	DefaultMaxConversations int           `mapstructure:"DEFAULT_MAX_CONVERSATIONS"`

	// Comma-separated; empty allows any origin on the events websocket.
	AllowedOriginsRaw string `mapstructure:"ALLOWED_ORIGINS"`

	source string
}

// HasCredentials reports whether live upstream calls can be made.
func (c *Config) HasCredentials() bool {
	return c.UpstreamAPIKey != ""
}

// AllowedOrigins splits ALLOWED_ORIGINS into trimmed, non-empty entries.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOriginsRaw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("APP_PORT", 8000)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("UPSTREAM_URL", "https://app.customgpt.ai/api/v1")
	v.SetDefault("UPSTREAM_API_KEY", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "0s")
	v.SetDefault("STORAGE_BACKEND", "memory")
	v.SetDefault("STORAGE_SQLITE_PATH", "./data/widget.db")
	v.SetDefault("STORAGE_SQLITE_MAX_PAGES", 0)
	v.SetDefault("STORAGE_REDIS_ADDR", "localhost:6379")
	v.SetDefault("STORAGE_REDIS_TTL", "720h")
	v.SetDefault("STORAGE_MEMORY_QUOTA_BYTES", 5*1024*1024)
	v.SetDefault("PENDING_MERGE_WINDOW", "5s")
	v.SetDefault("DEFAULT_MAX_CONVERSATIONS", 0)
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		cfg.source = used
	}

	return &cfg, nil
}

// Source returns the config file that was read, or "" when only env/defaults applied.
func (c *Config) Source() string {
	return c.source
}
