package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []float64{48, 168}, cfg.Dashboard.FocusWindows)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL.Duration)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "report"

[dashboard]
max_hours = 72
focus_windows = [24, 96]
cache_ttl = "90s"

[redis]
enabled = true
addr = "redis:6379"
`), 0o600))

	t.Setenv("MARKETFOCUS_DASHBOARD_MAX_MARKETS", "500")
	t.Setenv("MARKETFOCUS_SERVER_CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("MARKETFOCUS_LOG_LEVEL", "debug")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "report", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 72.0, cfg.Dashboard.MaxHours)
	assert.Equal(t, []float64{24, 96}, cfg.Dashboard.FocusWindows)
	assert.Equal(t, 90*time.Second, cfg.Dashboard.CacheTTL.Duration)
	assert.Equal(t, 500, cfg.Dashboard.MaxMarkets)
	assert.Equal(t, 100, cfg.Dashboard.PageSize, "defaults survive a partial file")
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	_, err := Load(missing, false)
	require.Error(t, err)

	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, "server", cfg.Mode)
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("mode = "), 0o600))

	_, err := Load(path, true)
	require.Error(t, err)
}

func TestFocusWindowsEnvIgnoresGarbage(t *testing.T) {
	cfg := Defaults()
	t.Setenv("MARKETFOCUS_DASHBOARD_FOCUS_WINDOWS", "24,abc")
	applyEnvOverrides(&cfg)
	assert.Equal(t, []float64{48, 168}, cfg.Dashboard.FocusWindows)

	t.Setenv("MARKETFOCUS_DASHBOARD_FOCUS_WINDOWS", "12, 36")
	applyEnvOverrides(&cfg)
	assert.Equal(t, []float64{12, 36}, cfg.Dashboard.FocusWindows)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Dashboard.MaxHours = 1000
	cfg.Dashboard.PriceSide = "mid"
	cfg.Dashboard.PriceConcurrency = 0
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""
	cfg.Notify.TelegramToken = "tok"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`unknown mode "trade"`,
		"max_hours must be in (0, 720]",
		"price_side must be buy or sell",
		"price_concurrency must be >= 1",
		"redis: addr must not be empty",
		"telegram_token and telegram_chat_id must be set together",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidateSkipsServerChecksOutsideServerMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "tui"
	cfg.Server.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Notify.TelegramToken = "123:abc"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Redis.Password)
	assert.Equal(t, "***", out.Notify.TelegramToken)
	assert.Empty(t, out.Notify.DiscordWebhookURL)

	out.Server.CORSOrigins[0] = "mutated"
	assert.NotEqual(t, "mutated", cfg.Server.CORSOrigins[0])
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}
