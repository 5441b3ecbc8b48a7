// Package config loads application configuration via Viper from environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config groups the application configuration.
type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	Blob BlobConfig
	OCR  OCRConfig
}

// AppConfig is general application configuration.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BlobConfig selects and configures the blob-store backend.
type BlobConfig struct {
	Backend  string // "fs" or "s3"
	LocalDir string // fs backend root
	Bucket   string // s3 bucket
	Region   string // s3 region
	Prefix   string // optional key prefix
}

// OCRConfig configures the OCR extraction collaborator.
type OCRConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Load reads configuration from environment variables and optionally from a
// .env file in the working directory. Env vars take priority.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // missing file is fine

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "dian-processor"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Blob: BlobConfig{
			Backend:  getString(v, "BLOB_BACKEND", "fs"),
			LocalDir: getString(v, "BLOB_LOCAL_DIR", "./data"),
			Bucket:   getString(v, "BLOB_S3_BUCKET", ""),
			Region:   getString(v, "BLOB_S3_REGION", "us-east-1"),
			Prefix:   getString(v, "BLOB_PREFIX", ""),
		},
		OCR: OCRConfig{
			APIKey:  getString(v, "OCR_API_KEY", ""),
			BaseURL: getString(v, "OCR_BASE_URL", ""),
			Model:   getString(v, "OCR_MODEL", "gpt-4o-mini"),
		},
	}

	if cfg.Blob.Backend == "s3" && cfg.Blob.Bucket == "" {
		return nil, fmt.Errorf("config: BLOB_S3_BUCKET is required when BLOB_BACKEND=s3")
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}
