// Package config defines the top-level configuration for marketfocus and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETFOCUS_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Dashboard  DashboardConfig  `toml:"dashboard"`
	Redis      RedisConfig      `toml:"redis"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
	// LogFile enables rotated file logging when set.
	LogFile       string `toml:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
}

// PolymarketConfig holds the public Polymarket API endpoints.
type PolymarketConfig struct {
	GammaHost      string   `toml:"gamma_host"`
	ClobHost       string   `toml:"clob_host"`
	RequestTimeout duration `toml:"request_timeout"`
	UserAgent      string   `toml:"user_agent"`
}

// DashboardConfig controls listing, filtering, pricing and caching.
type DashboardConfig struct {
	PageSize int `toml:"page_size"`
	// MaxMarkets caps the raw listing; 0 means unlimited.
	MaxMarkets int `toml:"max_markets"`
	// MaxHours is the default close window when a request names none.
	MaxHours     float64   `toml:"max_hours"`
	FocusWindows []float64 `toml:"focus_windows"`

	PriceSide        string `toml:"price_side"`
	PriceBatchSize   int    `toml:"price_batch_size"`
	PriceConcurrency int    `toml:"price_concurrency"`

	CacheTTL duration `toml:"cache_ttl"`
	LockTTL  duration `toml:"lock_ttl"`
	// RefreshInterval rebuilds the default snapshot in the background in
	// server mode; 0 disables it.
	RefreshInterval duration `toml:"refresh_interval"`
}

// RedisConfig holds Redis connection parameters. When disabled the snapshot
// cache and build lock are kept in process and API rate limiting is off.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimitPerMinute applies per client IP when Redis is enabled; 0
	// disables limiting.
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
	ShutdownTimeout    duration `toml:"shutdown_timeout"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	DiscordUsername   string   `toml:"discord_username"`
	Events            []string `toml:"events"`
}

// Max-hours bounds shared by the API and the terminal slider.
const (
	MinMaxHours  = 24
	MaxMaxHours  = 720
	MaxHoursStep = 24
)

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:      "https://gamma-api.polymarket.com",
			ClobHost:       "https://clob.polymarket.com",
			RequestTimeout: duration{10 * time.Second},
			UserAgent:      "marketfocus/1.0",
		},
		Dashboard: DashboardConfig{
			PageSize:         100,
			MaxMarkets:       0,
			MaxHours:         48,
			FocusWindows:     []float64{48, 168},
			PriceSide:        "buy",
			PriceBatchSize:   500,
			PriceConcurrency: 4,
			CacheTTL:         duration{5 * time.Minute},
			LockTTL:          duration{30 * time.Second},
			RefreshInterval:  duration{0},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
			KeyPrefix:  "marketfocus:",
		},
		Server: ServerConfig{
			Port:               8000,
			CORSOrigins:        []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitPerMinute: 120,
			ShutdownTimeout:    duration{10 * time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"focus", "fetch_failed"},
		},
		Mode:          "server",
		LogLevel:      "info",
		LogMaxSizeMB:  50,
		LogMaxBackups: 3,
		LogMaxAgeDays: 14,
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"tui":    true,
	"report": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, tui, report)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if c.LogFile != "" && c.LogMaxSizeMB <= 0 {
		errs = append(errs, "log_max_size_mb must be > 0 when log_file is set")
	}

	// Polymarket
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.RequestTimeout.Duration <= 0 {
		errs = append(errs, "polymarket: request_timeout must be > 0")
	}

	// Dashboard
	d := c.Dashboard
	if d.PageSize < 1 {
		errs = append(errs, "dashboard: page_size must be >= 1")
	}
	if d.MaxMarkets < 0 {
		errs = append(errs, "dashboard: max_markets must be >= 0")
	}
	if d.MaxHours <= 0 || d.MaxHours > MaxMaxHours {
		errs = append(errs, fmt.Sprintf("dashboard: max_hours must be in (0, %d], got %g", MaxMaxHours, d.MaxHours))
	}
	for _, w := range d.FocusWindows {
		if w <= 0 {
			errs = append(errs, fmt.Sprintf("dashboard: focus_windows entries must be > 0, got %g", w))
		}
	}
	if side := strings.ToLower(d.PriceSide); side != "buy" && side != "sell" {
		errs = append(errs, fmt.Sprintf("dashboard: price_side must be buy or sell, got %q", d.PriceSide))
	}
	if d.PriceBatchSize < 1 {
		errs = append(errs, "dashboard: price_batch_size must be >= 1")
	}
	if d.PriceConcurrency < 1 {
		errs = append(errs, "dashboard: price_concurrency must be >= 1")
	}
	if d.CacheTTL.Duration < 0 {
		errs = append(errs, "dashboard: cache_ttl must be >= 0")
	}
	if d.LockTTL.Duration <= 0 {
		errs = append(errs, "dashboard: lock_ttl must be > 0")
	}
	if d.RefreshInterval.Duration < 0 {
		errs = append(errs, "dashboard: refresh_interval must be >= 0")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if strings.EqualFold(c.Mode, "server") {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimitPerMinute < 0 {
			errs = append(errs, "server: rate_limit_per_minute must be >= 0")
		}
		if c.Server.ShutdownTimeout.Duration <= 0 {
			errs = append(errs, "server: shutdown_timeout must be > 0")
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
