package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig selects and configures the durable store backend
type DatabaseConfig struct {
	// Type is "sqlite" (default) or "postgres"
	Type string `yaml:"type"`
	// Path is the SQLite database file, resolved under Storage.DataDir
	// when relative
	Path string `yaml:"path"`
	// DSN is the full connection string for postgres
	DSN string `yaml:"dsn"`
}

// StorageConfig holds filesystem layout configuration
type StorageConfig struct {
	// DataDir is the per-install root for all durable state
	DataDir string `yaml:"data_dir"`
	// ImageDir holds generated (managed) image assets
	ImageDir string `yaml:"image_dir"`
	// BundledDir holds read-only bundled assets shipped with the app
	BundledDir string `yaml:"bundled_dir"`
}

// CacheConfig bounds the in-memory image cache
type CacheConfig struct {
	MaxEntries int   `yaml:"max_entries"`
	MaxBytes   int64 `yaml:"max_bytes"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "kinotek.db",
		},
		Storage: StorageConfig{
			DataDir:    "./kinotek-data",
			ImageDir:   "images",
			BundledDir: "./assets/bundled",
		},
		Cache: CacheConfig{
			MaxEntries: 100,
			MaxBytes:   500 << 20, // 500 MiB
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variable overrides, in that order. A .env file in the
// working directory is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KINOTEK_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("KINOTEK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("KINOTEK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("KINOTEK_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("KINOTEK_IMAGE_DIR"); v != "" {
		cfg.Storage.ImageDir = v
	}
	if v := os.Getenv("KINOTEK_BUNDLED_DIR"); v != "" {
		cfg.Storage.BundledDir = v
	}
	if v := os.Getenv("KINOTEK_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxEntries = n
		}
	}
	if v := os.Getenv("KINOTEK_CACHE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Cache.MaxBytes = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.Type == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("postgres database requires a DSN")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir cannot be empty")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max_entries must be positive")
	}
	if c.Cache.MaxBytes <= 0 {
		return fmt.Errorf("cache max_bytes must be positive")
	}
	return nil
}

// DatabasePath returns the SQLite file path resolved against DataDir
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Database.Path) {
		return c.Database.Path
	}
	return filepath.Join(c.Storage.DataDir, c.Database.Path)
}

// ImagePath returns the managed image directory resolved against DataDir
func (c *Config) ImagePath() string {
	if filepath.IsAbs(c.Storage.ImageDir) {
		return c.Storage.ImageDir
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.ImageDir)
}

// SeedMarkerPath returns the one-shot seed marker file location
func (c *Config) SeedMarkerPath() string {
	return filepath.Join(c.Storage.DataDir, ".seeded")
}
