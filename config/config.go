// Package config loads the bot configuration from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/habitbot/habit-bot/internal/infrastructure/persistence"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Default schedule.
const (
	DefaultMotivationTime   = "19:00"
	DefaultStatsRequestTime = "23:30"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Telegram TelegramConfig
	Storage  StorageConfig
	Schedule ScheduleConfig
	Messages MessagesConfig
	HTTP     HTTPConfig

	// problems found while parsing, reported by Validate
	problems []string
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone for "today" and for the daily schedule (default: host zone)
	Timezone string
	Location *time.Location

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// TelegramConfig holds Telegram Bot settings.
type TelegramConfig struct {
	// Bot token from @BotFather
	Token string

	// AuthorizedUserID is the only user the bot talks to.
	AuthorizedUserID int64

	// Long polling timeout
	PollingTimeout time.Duration
}

// StorageConfig selects where the tracking record lives.
type StorageConfig struct {
	Driver      string
	DataFile    string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string
	RedisKey    string
}

// Options converts the settings for persistence.Open.
func (s StorageConfig) Options() persistence.Options {
	return persistence.Options{
		Driver:      s.Driver,
		DataFile:    s.DataFile,
		DatabaseURL: s.DatabaseURL,
		SQLitePath:  s.SQLitePath,
		RedisURL:    s.RedisURL,
		RedisKey:    s.RedisKey,
	}
}

// ScheduleConfig holds the daily notification times.
type ScheduleConfig struct {
	Motivation   timeutil.ClockTime
	StatsRequest timeutil.ClockTime
}

// MessagesConfig holds text overrides. Empty fields keep the built-in texts.
type MessagesConfig struct {
	Motivations     []string
	NegativeKeyword string
	RelapseLabel    string
	SleepLabel      string
}

// HTTPConfig holds the health/metrics server settings.
type HTTPConfig struct {
	Enabled bool
	Addr    string
}

// fileConfig is the YAML overlay layout.
type fileConfig struct {
	Schedule struct {
		Motivation   string `yaml:"motivation"`
		StatsRequest string `yaml:"stats_request"`
	} `yaml:"schedule"`
	Messages struct {
		Motivations     []string `yaml:"motivations"`
		NegativeKeyword string   `yaml:"negative_keyword"`
		RelapseLabel    string   `yaml:"relapse_label"`
		SleepLabel      string   `yaml:"sleep_label"`
	} `yaml:"messages"`
}

// Load loads configuration from environment variables. If overlayPath is not
// empty the YAML file is read first; environment variables take precedence
// over it.
func Load(overlayPath string) (*Config, error) {
	var file fileConfig
	if overlayPath != "" {
		if err := readOverlay(overlayPath, &file); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.App = cfg.loadAppConfig()
	cfg.Telegram = cfg.loadTelegramConfig()
	cfg.Storage = loadStorageConfig()
	cfg.Schedule = cfg.loadScheduleConfig(file)
	cfg.Messages = loadMessagesConfig(file)
	cfg.HTTP = loadHTTPConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func readOverlay(path string, out *fileConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file %s not found", path)
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadAppConfig() AppConfig {
	timezone := getEnv("APP_TIMEZONE", "Local")

	loc, err := timeutil.LoadLocation(timezone)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("APP_TIMEZONE: unknown time zone %q", timezone))
		loc = time.Local
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "habit-bot"),
		Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
		Debug:           getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func (c *Config) loadTelegramConfig() TelegramConfig {
	cfg := TelegramConfig{
		Token:          getEnv("BOT_TOKEN", ""),
		PollingTimeout: time.Duration(getEnvInt("TELEGRAM_POLLING_TIMEOUT", 30)) * time.Second,
	}

	if raw := strings.TrimSpace(os.Getenv("USER_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.problems = append(c.problems, fmt.Sprintf("USER_ID must be an integer, got %q", raw))
		}
		cfg.AuthorizedUserID = id
	}

	return cfg
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", persistence.DriverFile)),
		DataFile:    getEnv("DATA_FILE", "data.json"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "habit.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		RedisKey:    getEnv("REDIS_KEY", "habitbot:record"),
	}
}

func (c *Config) loadScheduleConfig(file fileConfig) ScheduleConfig {
	motivation := getEnv("MOTIVATION_TIME", orDefault(file.Schedule.Motivation, DefaultMotivationTime))
	statsRequest := getEnv("STATS_REQUEST_TIME", orDefault(file.Schedule.StatsRequest, DefaultStatsRequestTime))

	return ScheduleConfig{
		Motivation:   c.parseClockTime("MOTIVATION_TIME", motivation),
		StatsRequest: c.parseClockTime("STATS_REQUEST_TIME", statsRequest),
	}
}

func (c *Config) parseClockTime(key, value string) timeutil.ClockTime {
	t, err := timeutil.ParseClockTime(value)
	if err != nil {
		c.problems = append(c.problems, fmt.Sprintf("%s must be HH:MM, got %q", key, value))
	}
	return t
}

func loadMessagesConfig(file fileConfig) MessagesConfig {
	return MessagesConfig{
		Motivations:     file.Messages.Motivations,
		NegativeKeyword: file.Messages.NegativeKeyword,
		RelapseLabel:    file.Messages.RelapseLabel,
		SleepLabel:      file.Messages.SleepLabel,
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Enabled: getEnvBool("HTTP_ENABLED", false),
		Addr:    getEnv("HTTP_ADDR", ":8080"),
	}
}

// Validate checks if the configuration is valid. All problems are reported
// together.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.problems...)

	if c.Telegram.Token == "" {
		errs = append(errs, "BOT_TOKEN is required")
	}
	if c.Telegram.AuthorizedUserID == 0 {
		errs = append(errs, "USER_ID is required and must not be 0")
	}
	if c.Telegram.PollingTimeout < 0 {
		errs = append(errs, "TELEGRAM_POLLING_TIMEOUT must not be negative")
	}

	switch {
	case !slices.Contains(persistence.Drivers, c.Storage.Driver):
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER must be one of %s, got %q",
			strings.Join(persistence.Drivers, ", "), c.Storage.Driver))
	case c.Storage.Driver == persistence.DriverPostgres && c.Storage.DatabaseURL == "":
		errs = append(errs, "DATABASE_URL is required for the postgres driver")
	case c.Storage.Driver == persistence.DriverRedis && c.Storage.RedisURL == "":
		errs = append(errs, "REDIS_URL is required for the redis driver")
	}

	if c.App.ShutdownTimeout <= 0 {
		errs = append(errs, "APP_SHUTDOWN_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func orDefault(val, defaultVal string) string {
	if strings.TrimSpace(val) == "" {
		return defaultVal
	}
	return val
}
