package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DevJWTSecret is the development-only secret used by LoadWithDefaults.
const DevJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"` // SQLite database file path
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `mapstructure:"address"` // listen address, e.g. ":50051"
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	TokenTTL           time.Duration `mapstructure:"token_ttl"`
	SuperAdminPassword string        `mapstructure:"superadmin_password"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"` // empty disables the endpoint
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ArchiveConfig selects where import/export bundles live.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"` // local or s3
	Dir      string `mapstructure:"dir"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	KeyID    string `mapstructure:"key_id"`
	AppKey   string `mapstructure:"app_key"`
}

var envBindings = map[string]string{
	"database.path":            "DB_PATH",
	"grpc.address":             "GRPC_ADDRESS",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.token_ttl":           "TOKEN_TTL",
	"auth.superadmin_password": "SUPERADMIN_PASSWORD",
	"metrics.address":          "METRICS_ADDRESS",
	"log.level":                "LOG_LEVEL",
	"archive.provider":         "ARCHIVE_PROVIDER",
	"archive.dir":              "ARCHIVE_DIR",
	"archive.bucket":           "ARCHIVE_BUCKET",
	"archive.endpoint":         "ARCHIVE_ENDPOINT",
	"archive.region":           "ARCHIVE_REGION",
	"archive.key_id":           "ARCHIVE_KEY_ID",
	"archive.app_key":          "ARCHIVE_APP_KEY",
}

// Load reads .env, an optional config.yaml and the environment. JWT_SECRET is required.
func Load() (*Config, error) {
	cfg, err := loadFrom(".")
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to a development JWT secret.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := loadFrom(".")
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DevJWTSecret
	}
	return cfg, nil
}

func loadFrom(dir string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := viper.New()
	v.SetDefault("database.path", "rooms.db")
	v.SetDefault("grpc.address", ":50051")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("metrics.address", ":9091")
	v.SetDefault("log.level", "info")
	v.SetDefault("archive.provider", "local")
	v.SetDefault("archive.dir", "./archive")
	v.SetDefault("archive.region", "us-east-1")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.Auth.TokenTTL)
	}
	switch cfg.Archive.Provider {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("ARCHIVE_PROVIDER must be local or s3, got %q", cfg.Archive.Provider)
	}
	return &cfg, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, gRPC: %s, Metrics: %s, Log: %s, Archive: %s, Auth: *** (masked) ***}",
		c.Database.Path, c.GRPC.Address, c.Metrics.Address, c.Log.Level, c.Archive.Provider)
}
