package persistence

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habitbot/habit-bot/internal/infrastructure/persistence/jsonfile"
	"github.com/habitbot/habit-bot/internal/infrastructure/persistence/postgres"
	"github.com/habitbot/habit-bot/internal/infrastructure/persistence/redis"
	"github.com/habitbot/habit-bot/internal/infrastructure/persistence/sqlite"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

// Drivers lists the supported driver names.
var Drivers = []string{DriverFile, DriverPostgres, DriverSQLite, DriverRedis}

// Options selects and configures a driver.
type Options struct {
	Driver      string
	DataFile    string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string
	RedisKey    string
}

// Open connects the configured backend. For postgres, pending migrations are
// applied before returning.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch opts.Driver {
	case "", DriverFile:
		store := jsonfile.NewStore(opts.DataFile)
		logger.Info("using file storage", slog.String("path", store.Path()))
		return store, nil

	case DriverPostgres:
		conn, err := postgres.NewConnectionFromURL(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("using postgres storage")
		return postgres.NewRecordRepository(conn), nil

	case DriverSQLite:
		store, err := sqlite.NewStore(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite storage", slog.String("path", opts.SQLitePath))
		return store, nil

	case DriverRedis:
		cfg := redis.DefaultConfig()
		cfg.URL = opts.RedisURL
		if opts.RedisKey != "" {
			cfg.Key = opts.RedisKey
		}
		store, err := redis.NewRecordStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis storage", slog.String("key", store.Key()))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
