package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/habitbot/habit-bot/internal/infrastructure/external/telegram"
	"github.com/habitbot/habit-bot/internal/infrastructure/metrics"
	"github.com/habitbot/habit-bot/internal/interface/telegram/middleware"
	"github.com/habitbot/habit-bot/pkg/logger"
)

// Command names.
const (
	CommandStart = "start"
	CommandStats = "stats"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Client is the part of the Telegram client the bot uses.
type Client interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SetCommands(ctx context.Context, commands ...telegram.BotCommand) error
	StartPolling(ctx context.Context, handler telegram.UpdateHandler) error
}

// BotConfig contains configuration for the bot.
type BotConfig struct {
	// AuthorizedUserID is the only user the bot answers to.
	AuthorizedUserID int64

	// Logger for structured logging.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// BotDependencies contains the handlers wired into the router.
type BotDependencies struct {
	Client         Client
	StartHandler   MessageHandler
	StatsHandler   MessageHandler
	CheckInHandler MessageHandler
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot receives updates and routes them through auth, recovery and the router.
type Bot struct {
	client   Client
	router   *Router
	auth     *middleware.AuthMiddleware
	recovery *middleware.RecoveryMiddleware
	metrics  *metrics.Metrics
	logger   *slog.Logger

	running   bool
	runningMu sync.Mutex
}

// NewBot creates a new bot.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if deps.Client == nil {
		return nil, errors.New("telegram client is required")
	}
	if deps.StartHandler == nil || deps.StatsHandler == nil || deps.CheckInHandler == nil {
		return nil, errors.New("all handlers are required")
	}
	if config.AuthorizedUserID == 0 {
		return nil, errors.New("authorized user ID is required")
	}

	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("telegram"))

	router := NewRouter()
	router.RegisterCommand(CommandStart, deps.StartHandler)
	router.RegisterCommand(CommandStats, deps.StatsHandler)
	router.RegisterTextHandler(deps.CheckInHandler)

	return &Bot{
		client:   deps.Client,
		router:   router,
		auth:     middleware.NewAuthMiddleware(config.AuthorizedUserID, log),
		recovery: middleware.NewRecoveryMiddleware(middleware.DefaultRecoveryConfig()),
		metrics:  config.Metrics,
		logger:   log,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start publishes the command menu and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.runningMu.Unlock()

	defer func() {
		b.runningMu.Lock()
		b.running = false
		b.runningMu.Unlock()
	}()

	err := b.client.SetCommands(ctx,
		telegram.BotCommand{Command: CommandStart, Description: "Начать отсчёт"},
		telegram.BotCommand{Command: CommandStats, Description: "Статистика"},
	)
	if err != nil {
		b.logger.Warn("failed to set bot commands", logger.Err(err))
	}

	// HandleUpdate logs its own errors.
	return b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		_ = b.HandleUpdate(ctx, update)
		return nil
	})
}

// IsRunning returns whether the bot is currently polling.
func (b *Bot) IsRunning() bool {
	b.runningMu.Lock()
	defer b.runningMu.Unlock()
	return b.running
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// HandleUpdate processes a single update. Messages from anyone but the
// authorized user are dropped without a reply. When a handler fails nothing
// is sent and the error is logged and returned.
//
// Handlers and middlewares find a logger tagged with the request and sender
// IDs via logger.FromContext.
func (b *Bot) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}

	startTime := time.Now()
	ctx, requestID := middleware.ContextWithRequestID(ctx)
	ctx = middleware.ContextWithTelegramID(ctx, msg.FromID)
	reqLog := b.logger.With(logger.RequestID(requestID), logger.TelegramID(msg.FromID))
	ctx = logger.WithContext(ctx, reqLog)

	if !b.auth.Authorize(ctx, msg.FromID) {
		b.metrics.RecordUpdate(KindUnauthorized)
		return nil
	}

	var kind string
	err := b.recovery.Run(ctx, func(ctx context.Context) error {
		resp, k, err := b.router.Route(ctx, msg)
		kind = k
		if err != nil {
			return err
		}
		if resp == nil || resp.Text == "" {
			return nil
		}
		if err := b.client.SendText(ctx, msg.ChatID, resp.Text); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
		return nil
	})
	if kind != "" {
		b.metrics.RecordUpdate(kind)
	}

	if err != nil {
		reqLog.ErrorContext(ctx, "failed to handle update",
			slog.Int("update_id", update.ID),
			slog.String("kind", kind),
			logger.Latency(time.Since(startTime)),
			logger.Err(err),
		)
		return err
	}

	reqLog.DebugContext(ctx, "update handled",
		slog.Int("update_id", update.ID),
		slog.String("kind", kind),
		logger.Latency(time.Since(startTime)),
	)
	return nil
}

// Router returns the bot's router.
func (b *Bot) Router() *Router {
	return b.router
}
