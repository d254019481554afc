// Package config loads pmis settings from defaults, config.yaml, .env and
// PMIS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig selects the gorm dialect. DSN wins over the discrete fields.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	PrivilegeCacheTTL time.Duration `mapstructure:"privilege_cache_ttl"`
	SecureCookies     bool          `mapstructure:"secure_cookies"`
}

type StorageConfig struct {
	UploadDir         string `mapstructure:"upload_dir"`
	FileServerBaseURL string `mapstructure:"file_server_base_url"`
	MaxUploadMB       int64  `mapstructure:"max_upload_mb"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type TelemetryConfig struct {
	AppName         string `mapstructure:"app_name"`
	NewRelicLicense string `mapstructure:"newrelic_license"`
}

// DefaultConfig returns a configuration usable for local development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "pmis",
			SSLMode:  "disable",
		},
		Auth: AuthConfig{
			JWTSecret:         "dev_only_secret",
			TokenTTL:          24 * time.Hour,
			PrivilegeCacheTTL: 5 * time.Minute,
		},
		Storage: StorageConfig{
			UploadDir:         "uploads",
			FileServerBaseURL: "http://localhost:8080/files",
			MaxUploadMB:       20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			AppName: "PMIS API",
		},
	}
}

// ConnectionString builds the DSN for the configured driver.
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.Name)
	case "sqlite":
		return d.Name
	default:
		return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
	}
}

// Validate checks the settings that have no safe fallback.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres, mysql or sqlite, got %q", c.Database.Driver))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Server.Mode == "release" && c.Auth.JWTSecret == DefaultConfig().Auth.JWTSecret {
		errs = append(errs, errors.New("auth.jwt_secret must be set in release mode"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, errors.New("storage.upload_dir is required"))
	}
	if c.Storage.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("storage.max_upload_mb must be positive"))
	}
	return errors.Join(errs...)
}
