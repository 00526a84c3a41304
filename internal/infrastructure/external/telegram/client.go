// Package telegram wraps the Telegram Bot API client. It converts library
// types into the small set of fields the bot needs so that the interface
// layer never imports the library directly.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/habitbot/habit-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Telegram client.
type ClientConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// APIEndpoint is the method URL template (default tgbotapi.APIEndpoint).
	APIEndpoint string

	// PollTimeout is the long polling timeout in seconds.
	PollTimeout int

	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables library request logging.
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(token string) ClientConfig {
	return ClientConfig{
		Token:       token,
		APIEndpoint: tgbotapi.APIEndpoint,
		PollTimeout: 30,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Update is an incoming update. Only messages are delivered.
type Update struct {
	ID      int
	Message *Message
}

// Message is an incoming text message.
type Message struct {
	ID       int
	ChatID   int64
	FromID   int64
	Username string
	Text     string

	// Command is the command name without the slash or bot mention,
	// empty for plain text.
	Command string

	// Args is the text after the command.
	Args string
}

// IsCommand reports whether the message starts with a bot command.
func (m *Message) IsCommand() bool {
	return m != nil && m.Command != ""
}

// BotCommand is an entry of the client-side command menu.
type BotCommand struct {
	Command     string
	Description string
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Telegram Bot API client.
type Client struct {
	api    *tgbotapi.BotAPI
	config ClientConfig
	logger *slog.Logger
}

// NewClient creates the client and verifies the token with getMe.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Token == "" {
		return nil, errors.New("telegram: token is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.APIEndpoint == "" {
		config.APIEndpoint = tgbotapi.APIEndpoint
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = 30
	}

	// Must be longer than the polling timeout plus network latency.
	httpClient := &http.Client{Timeout: time.Duration(config.PollTimeout)*time.Second + 30*time.Second}

	api, err := tgbotapi.NewBotAPIWithClient(config.Token, config.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: failed to create bot: %w", err)
	}
	api.Debug = config.Debug

	config.Logger.Info("telegram bot authorized",
		slog.Int64("id", api.Self.ID),
		slog.String("username", api.Self.UserName),
	)

	return &Client{api: api, config: config, logger: config.Logger}, nil
}

// Username returns the bot's username.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// ══════════════════════════════════════════════════════════════════════════════
// SENDING MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// SendText sends a plain text message. Failures are returned as is; there
// are no retries.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram: send message to %d: %w", chatID, err)
	}
	return nil
}

// SetCommands publishes the command menu.
func (c *Client) SetCommands(ctx context.Context, commands ...BotCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmds := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		cmds = append(cmds, tgbotapi.BotCommand{Command: cmd.Command, Description: cmd.Description})
	}

	if _, err := c.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LONG POLLING RUNNER
// ══════════════════════════════════════════════════════════════════════════════

// UpdateHandler is a function that handles a Telegram update.
type UpdateHandler func(ctx context.Context, update *Update) error

// StartPolling receives updates until ctx is cancelled. Updates are handed to
// handler one at a time, in arrival order. Handler errors are logged and do
// not stop polling.
func (c *Client) StartPolling(ctx context.Context, handler UpdateHandler) error {
	c.logger.Info("starting telegram long polling", slog.Int("timeout", c.config.PollTimeout))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.config.PollTimeout
	u.AllowedUpdates = []string{"message"}
	updates := c.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping telegram long polling")
			c.api.StopReceivingUpdates()
			return nil

		case raw, ok := <-updates:
			if !ok {
				return nil
			}

			update := ConvertUpdate(raw)
			if update.Message == nil {
				continue
			}

			if err := handler(ctx, update); err != nil {
				c.logger.Error("failed to handle update",
					slog.Int("update_id", update.ID),
					logger.Err(err),
				)
			}
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONVERSION
// ══════════════════════════════════════════════════════════════════════════════

// ConvertUpdate converts a library update. Non-message updates and messages
// without text or sender produce an Update with a nil Message.
func ConvertUpdate(raw tgbotapi.Update) *Update {
	update := &Update{ID: raw.UpdateID}

	msg := raw.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return update
	}

	update.Message = &Message{
		ID:       msg.MessageID,
		ChatID:   msg.Chat.ID,
		FromID:   msg.From.ID,
		Username: msg.From.UserName,
		Text:     msg.Text,
	}
	if msg.IsCommand() {
		update.Message.Command = msg.Command()
		update.Message.Args = msg.CommandArguments()
	}

	return update
}
