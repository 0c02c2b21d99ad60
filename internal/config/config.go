package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/automation-hub/hub/internal/db"
	"github.com/automation-hub/hub/internal/settings"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvDBConnection     = "DB_CONNECTION"
	EnvJWTSecret        = "JWT_SECRET"
	EnvJWTExpiry        = "JWT_EXPIRY"
	EnvImportModule     = "IMPORT_MODULE"
	EnvBankHubExportURL = "BANKHUB_EXPORT_URL"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// DatabaseConfig selects the database. DSN wins; otherwise type "sqlite" builds a DSN from Path.
type DatabaseConfig struct {
	DSN  string `yaml:"dsn"`
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	Module          string        `yaml:"module"`
	DuplicateWindow time.Duration `yaml:"duplicate-window"`
	CandidateLimit  int           `yaml:"candidate-limit"`
	ExternalIDLimit int           `yaml:"external-id-limit"`
}

// BankHubConfig configures the periodic export pull. An empty ExportURL disables it.
type BankHubConfig struct {
	ExportURL    string        `yaml:"export-url"`
	SyncInterval time.Duration `yaml:"sync-interval"`
}

// RedisConfig configures the Redis rate limit backend.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RateLimitConfig configures per-caller request limits on the import routes.
type RateLimitConfig struct {
	Limit int         `yaml:"limit"`
	Redis RedisConfig `yaml:"redis"`
}

// Config is the full YAML configuration file.
type Config struct {
	DatabaseDSN string          `yaml:"database-dsn"`
	Database    DatabaseConfig  `yaml:"database"`
	JWT         JWTConfig       `yaml:"jwt"`
	Import      ImportConfig    `yaml:"import"`
	BankHub     BankHubConfig   `yaml:"bankhub"`
	RateLimit   RateLimitConfig `yaml:"rate-limit"`
}

// Load reads the config file, applies environment overrides, and fills defaults.
// A missing file is not an error; the environment alone can configure the hub.
func Load(configPath string) (Config, error) {
	var cfg Config
	data, errRead := os.ReadFile(configPath)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		c.DatabaseDSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		c.JWT.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			c.JWT.Expiry = expiry
		}
	}
	if module := strings.TrimSpace(os.Getenv(EnvImportModule)); module != "" {
		c.Import.Module = module
	}
	if url := strings.TrimSpace(os.Getenv(EnvBankHubExportURL)); url != "" {
		c.BankHub.ExportURL = url
	}
}

func (c *Config) applyDefaults() {
	if c.JWT.Expiry <= 0 {
		c.JWT.Expiry = defaultJWTExpiry
	}
	c.Import.Module = strings.TrimSpace(c.Import.Module)
	if c.Import.Module == "" {
		c.Import.Module = settings.DefaultModule
	}
	if c.Import.DuplicateWindow <= 0 {
		c.Import.DuplicateWindow = settings.DefaultDuplicateWindow
	}
	if c.Import.CandidateLimit <= 0 {
		c.Import.CandidateLimit = settings.DefaultCandidateLimit
	}
	if c.Import.ExternalIDLimit <= 0 {
		c.Import.ExternalIDLimit = settings.DefaultExternalIDLimit
	}
	if c.BankHub.SyncInterval <= 0 {
		c.BankHub.SyncInterval = settings.DefaultSyncInterval
	}
	if c.RateLimit.Limit < 0 {
		c.RateLimit.Limit = 0
	}
	if c.RateLimit.Redis.DB < 0 {
		c.RateLimit.Redis.DB = 0
	}
	c.RateLimit.Redis.Prefix = strings.TrimSpace(c.RateLimit.Redis.Prefix)
	if c.RateLimit.Redis.Prefix == "" {
		c.RateLimit.Redis.Prefix = settings.DefaultRateLimitRedisPrefix
	}
}

// DSN resolves the database DSN from the loaded config.
func (c Config) DSN() (string, error) {
	if dsn := strings.TrimSpace(c.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(c.Database.DSN); dsn != "" {
		return dsn, nil
	}
	if strings.EqualFold(strings.TrimSpace(c.Database.Type), "sqlite") {
		return db.BuildSQLiteDSN(c.Database.Path), nil
	}
	return "", ErrMissingDatabaseDSN
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}
	return cfg.DSN()
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return JWTConfig{Expiry: defaultJWTExpiry}, err
	}
	return cfg.JWT, nil
}
