package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`     // "development" or "production"
	BaseURL string `mapstructure:"base_url"` // Public origin used for uploaded file URLs
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite" or "postgres"
	DSN             string `mapstructure:"dsn"`               // Connection string
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes (Postgres)
	LogLevel        string `mapstructure:"log_level"`         // gorm log level; empty follows log.level
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`  // Secret the signing key is derived from
	TokenTTL   int    `mapstructure:"token_ttl"`   // Token lifetime in minutes
	RefreshTTL int    `mapstructure:"refresh_ttl"` // Refresh window in minutes, measured from issue time
	Denylist   string `mapstructure:"denylist"`    // "database" or "valkey"
	ValkeyAddr string `mapstructure:"valkey_addr"` // Valkey address (if denylist=valkey), e.g., "localhost:6379"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// StorageConfig holds uploaded file storage configuration
type StorageConfig struct {
	Dir         string `mapstructure:"dir"`           // Directory uploaded files are written to
	URLPrefix   string `mapstructure:"url_prefix"`    // Route prefix the directory is served under
	MaxUploadMB int    `mapstructure:"max_upload_mb"` // Maximum accepted upload size
}

// MetricsConfig holds Prometheus configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from .env, config file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/floatbank/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return unmarshal(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8460)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.base_url", "http://localhost:8460")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./floatbank.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60) // 60 minutes
	v.SetDefault("database.log_level", "")
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", 60)
	v.SetDefault("auth.refresh_ttl", 20160) // two weeks
	v.SetDefault("auth.denylist", "database")
	v.SetDefault("auth.valkey_addr", "localhost:6379")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.dir", "./data/uploads")
	v.SetDefault("storage.url_prefix", "/storage")
	v.SetDefault("storage.max_upload_mb", 5)
	v.SetDefault("metrics.enabled", true)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	// Environment variables override
	v.SetEnvPrefix("FLOATBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Auth.Denylist {
	case "database", "valkey":
	default:
		return fmt.Errorf("unsupported token denylist: %s (supported: database, valkey)", c.Auth.Denylist)
	}
	if c.Auth.Denylist == "valkey" && c.Auth.ValkeyAddr == "" {
		return fmt.Errorf("valkey address is required when token denylist is valkey")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.RefreshTTL < c.Auth.TokenTTL {
		return fmt.Errorf("auth.refresh_ttl must not be shorter than auth.token_ttl")
	}
	return nil
}
