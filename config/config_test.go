package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbot/habit-bot/internal/infrastructure/persistence"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

var envKeys = []string{
	"BOT_TOKEN", "USER_ID", "APP_ENV", "APP_DEBUG", "APP_TIMEZONE", "APP_SHUTDOWN_TIMEOUT",
	"STORAGE_DRIVER", "DATA_FILE", "DATABASE_URL", "SQLITE_PATH", "REDIS_URL", "REDIS_KEY",
	"MOTIVATION_TIME", "STATS_REQUEST_TIME", "HTTP_ENABLED", "HTTP_ADDR", "TELEGRAM_POLLING_TIMEOUT",
}

// clearEnv blanks every variable Load reads; empty values mean "use default".
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("USER_ID", "424242")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(424242), cfg.Telegram.AuthorizedUserID)
	assert.Equal(t, 30*time.Second, cfg.Telegram.PollingTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, time.Local, cfg.App.Location)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)

	assert.Equal(t, persistence.DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "data.json", cfg.Storage.DataFile)
	assert.Equal(t, "habitbot:record", cfg.Storage.RedisKey)

	assert.Equal(t, timeutil.ClockTime{Hour: 19}, cfg.Schedule.Motivation)
	assert.Equal(t, timeutil.ClockTime{Hour: 23, Minute: 30}, cfg.Schedule.StatsRequest)

	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/habit")
	t.Setenv("MOTIVATION_TIME", "08:15")
	t.Setenv("HTTP_ENABLED", "true")
	t.Setenv("TELEGRAM_POLLING_TIMEOUT", "5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, persistence.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/habit", cfg.Storage.Options().DatabaseURL)
	assert.Equal(t, timeutil.ClockTime{Hour: 8, Minute: 15}, cfg.Schedule.Motivation)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Telegram.PollingTimeout)
}

func TestLoad_CollectsAllProblems(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER_ID", "me")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	t.Setenv("STATS_REQUEST_TIME", "half past eleven")
	t.Setenv("STORAGE_DRIVER", "mongo")

	_, err := Load("")
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "BOT_TOKEN is required")
	assert.Contains(t, msg, `USER_ID must be an integer, got "me"`)
	assert.Contains(t, msg, "APP_TIMEZONE")
	assert.Contains(t, msg, "STATS_REQUEST_TIME must be HH:MM")
	assert.Contains(t, msg, "STORAGE_DRIVER must be one of")
}

func TestLoad_ZeroUserID(t *testing.T) {
	setRequired(t)
	t.Setenv("USER_ID", "0")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "USER_ID is required and must not be 0")
}

func TestLoad_MissingUserID(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "USER_ID is required")
}

func TestLoad_DriverRequirements(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{persistence.DriverPostgres, "DATABASE_URL is required"},
		{persistence.DriverRedis, "REDIS_URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			setRequired(t)
			t.Setenv("STORAGE_DRIVER", tt.driver)

			_, err := Load("")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	setRequired(t)
	t.Setenv("STATS_REQUEST_TIME", "22:00")

	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
schedule:
  motivation: "07:30"
  stats_request: "21:00"
messages:
  motivations:
    - "Держись"
    - "Ещё один день"
  negative_keyword: "no"
  sleep_label: "Сон"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, timeutil.ClockTime{Hour: 7, Minute: 30}, cfg.Schedule.Motivation)
	assert.Equal(t, timeutil.ClockTime{Hour: 22}, cfg.Schedule.StatsRequest, "env wins over the file")
	assert.Equal(t, []string{"Держись", "Ещё один день"}, cfg.Messages.Motivations)
	assert.Equal(t, "no", cfg.Messages.NegativeKeyword)
	assert.Equal(t, "Сон", cfg.Messages.SleepLabel)
	assert.Empty(t, cfg.Messages.RelapseLabel)
}

func TestLoad_YAMLOverlayErrors(t *testing.T) {
	setRequired(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "not found")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("schedule: [unclosed"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config file")
}
