package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETFOCUS_* environment variable overrides, and
// returns the final Config. A missing file is not an error when optional is
// set. The returned Config has NOT been validated; the caller should invoke
// Config.Validate() after Load.
func Load(path string, optional bool) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETFOCUS_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty).
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "MARKETFOCUS_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "MARKETFOCUS_POLYMARKET_CLOB_HOST")
	setDuration(&cfg.Polymarket.RequestTimeout, "MARKETFOCUS_POLYMARKET_REQUEST_TIMEOUT")
	setStr(&cfg.Polymarket.UserAgent, "MARKETFOCUS_POLYMARKET_USER_AGENT")

	// ── Dashboard ──
	setInt(&cfg.Dashboard.PageSize, "MARKETFOCUS_DASHBOARD_PAGE_SIZE")
	setInt(&cfg.Dashboard.MaxMarkets, "MARKETFOCUS_DASHBOARD_MAX_MARKETS")
	setFloat64(&cfg.Dashboard.MaxHours, "MARKETFOCUS_DASHBOARD_MAX_HOURS")
	setFloat64Slice(&cfg.Dashboard.FocusWindows, "MARKETFOCUS_DASHBOARD_FOCUS_WINDOWS")
	setStr(&cfg.Dashboard.PriceSide, "MARKETFOCUS_DASHBOARD_PRICE_SIDE")
	setInt(&cfg.Dashboard.PriceBatchSize, "MARKETFOCUS_DASHBOARD_PRICE_BATCH_SIZE")
	setInt(&cfg.Dashboard.PriceConcurrency, "MARKETFOCUS_DASHBOARD_PRICE_CONCURRENCY")
	setDuration(&cfg.Dashboard.CacheTTL, "MARKETFOCUS_DASHBOARD_CACHE_TTL")
	setDuration(&cfg.Dashboard.LockTTL, "MARKETFOCUS_DASHBOARD_LOCK_TTL")
	setDuration(&cfg.Dashboard.RefreshInterval, "MARKETFOCUS_DASHBOARD_REFRESH_INTERVAL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETFOCUS_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETFOCUS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETFOCUS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETFOCUS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MARKETFOCUS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MARKETFOCUS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MARKETFOCUS_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "MARKETFOCUS_REDIS_KEY_PREFIX")

	// ── Server ──
	setInt(&cfg.Server.Port, "MARKETFOCUS_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETFOCUS_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimitPerMinute, "MARKETFOCUS_SERVER_RATE_LIMIT_PER_MINUTE")
	setDuration(&cfg.Server.ShutdownTimeout, "MARKETFOCUS_SERVER_SHUTDOWN_TIMEOUT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETFOCUS_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETFOCUS_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETFOCUS_NOTIFY_DISCORD_WEBHOOK_URL")
	setStr(&cfg.Notify.DiscordUsername, "MARKETFOCUS_NOTIFY_DISCORD_USERNAME")
	setStringSlice(&cfg.Notify.Events, "MARKETFOCUS_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETFOCUS_MODE")
	setStr(&cfg.LogLevel, "MARKETFOCUS_LOG_LEVEL")
	setStr(&cfg.LogFile, "MARKETFOCUS_LOG_FILE")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return cleaned
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		if cleaned := splitList(v); len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

// setFloat64Slice leaves dst untouched if any element fails to parse.
func setFloat64Slice(dst *[]float64, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := splitList(v)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return
		}
		out = append(out, f)
	}
	if len(out) > 0 {
		*dst = out
	}
}
