package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbot/habit-bot/pkg/logger"
)

func TestAuthMiddleware_Authorize(t *testing.T) {
	m := NewAuthMiddleware(1001, logger.Discard())
	ctx := context.Background()

	assert.True(t, m.Authorize(ctx, 1001))
	assert.False(t, m.Authorize(ctx, 2002))
	assert.False(t, m.Authorize(ctx, 0))
	assert.Equal(t, int64(1001), m.AuthorizedID())
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Zero(t, TelegramIDFromContext(ctx))

	ctx, id := ContextWithRequestID(ctx)
	ctx = ContextWithTelegramID(ctx, 42)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, RequestIDFromContext(ctx))
	assert.Equal(t, int64(42), TelegramIDFromContext(ctx))
}

func TestRecoveryMiddleware_Run(t *testing.T) {
	m := NewRecoveryMiddleware(RecoveryConfig{})
	ctx := logger.WithContext(context.Background(), logger.Discard())

	assert.NoError(t, m.Run(ctx, func(context.Context) error { return nil }))

	boom := errors.New("boom")
	assert.ErrorIs(t, m.Run(ctx, func(context.Context) error { return boom }), boom)

	err := m.Run(ctx, func(context.Context) error { panic("nil map") })
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "nil map")
}
