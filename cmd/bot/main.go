// Package main is the entry point of the habit tracking bot.
//
// The bot serves a single Telegram user: it counts days since /start,
// records free-form daily answers, reports statistics and sends two
// scheduled messages a day.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/habitbot/habit-bot/config"
	"github.com/habitbot/habit-bot/internal/application/command"
	"github.com/habitbot/habit-bot/internal/application/query"
	tgclient "github.com/habitbot/habit-bot/internal/infrastructure/external/telegram"
	"github.com/habitbot/habit-bot/internal/infrastructure/metrics"
	"github.com/habitbot/habit-bot/internal/infrastructure/persistence"
	"github.com/habitbot/habit-bot/internal/infrastructure/scheduler"
	"github.com/habitbot/habit-bot/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/habitbot/habit-bot/internal/interface/http"
	"github.com/habitbot/habit-bot/internal/interface/http/handlers"
	"github.com/habitbot/habit-bot/internal/interface/telegram"
	"github.com/habitbot/habit-bot/internal/interface/telegram/handler"
	"github.com/habitbot/habit-bot/internal/interface/telegram/presenter"
	"github.com/habitbot/habit-bot/pkg/logger"
	"github.com/habitbot/habit-bot/pkg/timeutil"
)

// CLI describes the command line flags.
var CLI struct {
	EnvFile string `name:"env-file" help:"File with environment variables" default:".env"`
	Config  string `short:"c" help:"Optional YAML file with schedule and message overrides"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	kong.Parse(&CLI,
		kong.Name("habit-bot"),
		kong.Description("Single-user Telegram bot for daily habit tracking."),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	envErr := godotenv.Load(CLI.EnvFile)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)

	switch {
	case errors.Is(envErr, fs.ErrNotExist):
		log.Warn("env file not found, using process environment", slog.String("path", CLI.EnvFile))
	case envErr != nil:
		log.Warn("failed to read env file", slog.String("path", CLI.EnvFile), logger.Err(envErr))
	}

	log.Info("starting habit bot",
		slog.String("env", string(cfg.App.Environment)),
		slog.Bool("debug", cfg.App.Debug),
		slog.String("timezone", cfg.App.Location.String()),
		slog.String("storage", cfg.Storage.Driver),
	)

	calendar := timeutil.NewCalendar(clockwork.NewRealClock(), cfg.App.Location)
	m := metrics.New()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	backend, err := persistence.Open(ctx, cfg.Storage.Options(), log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	var storeOpts []persistence.StoreOption
	if persistence.IsNetworkDriver(cfg.Storage.Driver) {
		storeOpts = append(storeOpts, persistence.WithStrictUpdates())
	}
	store := persistence.NewSerializedStore(backend, log, m, storeOpts...)
	defer func() {
		log.Info("closing storage...")
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	messages := presenter.Messages{
		Motivations:  cfg.Messages.Motivations,
		RelapseLabel: cfg.Messages.RelapseLabel,
		SleepLabel:   cfg.Messages.SleepLabel,
	}.WithDefaults()

	beginTracking := command.NewBeginTrackingHandler(store, calendar, log)
	recordCheckIn := command.NewRecordCheckInHandler(store, calendar, m, log)
	getStats := query.NewGetStatsHandler(store, calendar, cfg.Messages.NegativeKeyword)
	getCurrentDay := query.NewGetCurrentDayHandler(store, calendar)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. TELEGRAM
	// ─────────────────────────────────────────────────────────────────────────
	clientCfg := tgclient.DefaultClientConfig(cfg.Telegram.Token)
	clientCfg.PollTimeout = int(cfg.Telegram.PollingTimeout / time.Second)
	clientCfg.Logger = log
	clientCfg.Debug = cfg.App.Debug

	client, err := tgclient.NewClient(clientCfg)
	if err != nil {
		return fmt.Errorf("failed to create telegram client: %w", err)
	}

	bot, err := telegram.NewBot(
		telegram.BotConfig{
			AuthorizedUserID: cfg.Telegram.AuthorizedUserID,
			Logger:           log,
			Metrics:          m,
		},
		telegram.BotDependencies{
			Client:         client,
			StartHandler:   handler.NewStartHandler(beginTracking),
			StatsHandler:   handler.NewStatsHandler(getStats),
			CheckInHandler: handler.NewCheckInHandler(recordCheckIn),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	sched, err := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:   log,
		Location: cfg.App.Location,
		Clock:    calendar.Clock(),
		Metrics:  m,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	motivation := jobs.NewMotivationJob(client, messages,
		jobs.MotivationConfig{ChatID: cfg.Telegram.AuthorizedUserID}, log)
	if err := sched.RegisterDaily(motivation, cfg.Schedule.Motivation); err != nil {
		return err
	}

	statsRequest := jobs.NewStatsRequestJob(client, getCurrentDay, messages,
		jobs.StatsRequestConfig{ChatID: cfg.Telegram.AuthorizedUserID}, log)
	if err := sched.RegisterDaily(statsRequest, cfg.Schedule.StatsRequest); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var httpServer *httpserver.Server
	if cfg.HTTP.Enabled {
		health := handlers.NewHealthChecker(cfg.App.Version, calendar.Clock())
		health.AddCheck("storage", handlers.NewPingCheck(store))

		httpCfg := httpserver.DefaultConfig()
		httpCfg.Addr = cfg.HTTP.Addr
		httpServer = httpserver.NewServer(httpCfg, httpserver.Dependencies{
			Health:  health,
			Metrics: m.Handler(),
			Logger:  log,
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ЗАПУСК
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if httpServer != nil {
		go func() {
			if err := <-httpServer.StartAsync(); err != nil {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := bot.Start(pollCtx); err != nil {
			errCh <- fmt.Errorf("telegram bot error: %w", err)
		}
	}()

	jobsInfo := make([]string, 0, 2)
	for _, j := range sched.ListJobs() {
		jobsInfo = append(jobsInfo, j.Name+"@"+j.At.String())
	}
	log.Info("habit bot started",
		slog.String("bot", client.Username()),
		slog.Int64("user_id", cfg.Telegram.AuthorizedUserID),
		slog.Any("jobs", jobsInfo),
		slog.Bool("http", httpServer != nil),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case runErr = <-errCh:
		log.Error("service error", logger.Err(runErr))
	}

	log.Info("starting graceful shutdown...", slog.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	// 1. Перестаём получать сообщения
	stopPolling()
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn("telegram polling did not stop in time")
	}

	// 2. Останавливаем планировщик
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", logger.Err(err))
	}

	// 3. Останавливаем HTTP сервер
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		}
	}

	// 4. Хранилище закроется через defer

	log.Info("shutdown completed")
	return runErr
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	log := logger.New(logger.Options{
		Env:   string(cfg.App.Environment),
		Debug: cfg.App.Debug || CLI.Verbose,
	})
	slog.SetDefault(log)
	return log
}
