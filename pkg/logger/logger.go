// Package logger configures log/slog for the bot and carries a request-scoped
// logger through context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Options configures the root logger.
type Options struct {
	// Output defaults to os.Stdout.
	Output io.Writer

	// Env selects the format: JSON in production, text everywhere else.
	Env string

	// Debug lowers the level to DEBUG.
	Debug bool
}

// New builds a logger from options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if opts.Debug {
		handlerOpts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Env, "production") {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT PROPAGATION
// ══════════════════════════════════════════════════════════════════════════════

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ATTRIBUTES
// ══════════════════════════════════════════════════════════════════════════════

func TelegramID(id int64) slog.Attr     { return slog.Int64("telegram_id", id) }
func ChatID(id int64) slog.Attr         { return slog.Int64("chat_id", id) }
func RequestID(id string) slog.Attr     { return slog.String("request_id", id) }
func Component(name string) slog.Attr   { return slog.String("component", name) }
func Job(name string) slog.Attr         { return slog.String("job", name) }
func Latency(d time.Duration) slog.Attr { return slog.Duration("latency", d) }

// Err returns an error attribute; nil errors render as an empty string.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
