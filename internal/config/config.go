// Package config loads engine configuration from YAML with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the analytics engine.
type Config struct {
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Cache        CacheConfig        `yaml:"cache"`
	Artifact     ArtifactConfig     `yaml:"artifact"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Forecast     ForecastConfig     `yaml:"forecast"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactIDs *bool  `yaml:"redact_ids"` // nil means on
}

// DatabaseConfig holds the event-store connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig holds the derived-result cache settings.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	RedisAddr  string `yaml:"redis_addr"`
	RedisDB    int    `yaml:"redis_db"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

// TTL returns the configured cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// ArtifactConfig holds the segmentation model artifact location.
// Type is "file" or "s3".
type ArtifactConfig struct {
	Type     string `yaml:"type"`
	Path     string `yaml:"path"`
	S3Bucket string `yaml:"s3_bucket"`
	S3Key    string `yaml:"s3_key"`
	S3Region string `yaml:"s3_region"`
}

// SegmentationConfig holds clustering parameters. These are configuration
// inputs, not tuned by the engine.
type SegmentationConfig struct {
	Clusters int   `yaml:"clusters"`
	Seed     int64 `yaml:"seed"`
}

// ForecastConfig holds the ARIMA order and projection horizon.
type ForecastConfig struct {
	P           int `yaml:"p"`
	D           int `yaml:"d"`
	Q           int `yaml:"q"`
	HorizonDays int `yaml:"horizon_days"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 60
	}
	if cfg.Artifact.Type == "" {
		cfg.Artifact.Type = "file"
	}
	if cfg.Artifact.Path == "" {
		cfg.Artifact.Path = "models/segmentation.json"
	}
	if cfg.Artifact.S3Key == "" {
		cfg.Artifact.S3Key = "models/segmentation.json"
	}
	if cfg.Artifact.S3Region == "" {
		cfg.Artifact.S3Region = "us-west-2"
	}
	if cfg.Segmentation.Clusters == 0 {
		cfg.Segmentation.Clusters = 4
	}
	if cfg.Segmentation.Seed == 0 {
		cfg.Segmentation.Seed = 42
	}
	if cfg.Forecast.P == 0 && cfg.Forecast.D == 0 && cfg.Forecast.Q == 0 {
		cfg.Forecast.P, cfg.Forecast.D, cfg.Forecast.Q = 1, 1, 1
	}
	if cfg.Forecast.HorizonDays == 0 {
		cfg.Forecast.HorizonDays = 30
	}
}

func (cfg *Config) validate() error {
	if cfg.Segmentation.Clusters < 2 {
		return fmt.Errorf("config: segmentation.clusters must be at least 2, got %d", cfg.Segmentation.Clusters)
	}
	if cfg.Forecast.HorizonDays < 1 {
		return fmt.Errorf("config: forecast.horizon_days must be positive, got %d", cfg.Forecast.HorizonDays)
	}
	switch cfg.Artifact.Type {
	case "file", "s3":
	default:
		return fmt.Errorf("config: artifact.type must be \"file\" or \"s3\", got %q", cfg.Artifact.Type)
	}
	if cfg.Artifact.Type == "s3" && cfg.Artifact.S3Bucket == "" {
		return fmt.Errorf("config: artifact.s3_bucket is required when artifact.type is s3")
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.Cache.RedisDB = n
		}
	}
	if p := os.Getenv("ARTIFACT_PATH"); p != "" {
		cfg.Artifact.Path = p
	}
	if bucket := os.Getenv("ARTIFACT_S3_BUCKET"); bucket != "" {
		cfg.Artifact.Type = "s3"
		cfg.Artifact.S3Bucket = bucket
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}
