package ratelimit

import (
	"strings"
	"sync/atomic"

	"github.com/automation-hub/hub/internal/config"
	internalsettings "github.com/automation-hub/hub/internal/settings"
)

// SettingsConfig captures the active rate limit settings.
type SettingsConfig struct {
	Limit         int
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// SettingsFromConfig normalizes the rate-limit section of the config file.
func SettingsFromConfig(rl config.RateLimitConfig) SettingsConfig {
	cfg := SettingsConfig{
		Limit:         rl.Limit,
		RedisEnabled:  rl.Redis.Enabled,
		RedisAddr:     strings.TrimSpace(rl.Redis.Addr),
		RedisPassword: strings.TrimSpace(rl.Redis.Password),
		RedisDB:       rl.Redis.DB,
		RedisPrefix:   strings.TrimSpace(rl.Redis.Prefix),
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = internalsettings.DefaultRateLimitRedisPrefix
	}
	if cfg.RedisDB < 0 {
		cfg.RedisDB = 0
	}
	if cfg.Limit < 0 {
		cfg.Limit = internalsettings.DefaultRateLimit
	}
	return cfg
}

// SettingsStore holds the latest settings snapshot; the config watcher swaps it on reload.
type SettingsStore struct {
	current atomic.Pointer[SettingsConfig]
}

// NewSettingsStore constructs a store seeded with initial.
func NewSettingsStore(initial SettingsConfig) *SettingsStore {
	s := &SettingsStore{}
	s.Store(initial)
	return s
}

// Store replaces the snapshot.
func (s *SettingsStore) Store(cfg SettingsConfig) {
	s.current.Store(&cfg)
}

// Load returns the current snapshot. It satisfies SettingsProvider.
func (s *SettingsStore) Load() SettingsConfig {
	if s == nil {
		return SettingsConfig{RedisPrefix: internalsettings.DefaultRateLimitRedisPrefix}
	}
	cfg := s.current.Load()
	if cfg == nil {
		return SettingsConfig{RedisPrefix: internalsettings.DefaultRateLimitRedisPrefix}
	}
	return *cfg
}
