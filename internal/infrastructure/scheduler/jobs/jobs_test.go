package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitbot/habit-bot/internal/application/query"
	"github.com/habitbot/habit-bot/internal/interface/telegram/presenter"
	"github.com/habitbot/habit-bot/pkg/logger"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type fakeDays struct {
	dto query.CurrentDayDTO
	err error
}

func (f fakeDays) Handle(ctx context.Context) (query.CurrentDayDTO, error) {
	return f.dto, f.err
}

// ══════════════════════════════════════════════════════════════════════════════
// MOTIVATION
// ══════════════════════════════════════════════════════════════════════════════

func TestMotivationJob_SendsConfiguredMessage(t *testing.T) {
	sender := &fakeSender{}
	msgs := presenter.Messages{Motivations: []string{"раз", "два"}}
	job := NewMotivationJob(sender, msgs, MotivationConfig{
		ChatID: 42,
		Intn:   func(n int) int { return n - 1 },
	}, logger.Discard())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentMessage{chatID: 42, text: "💪 два"}, sender.sent[0])
	assert.Equal(t, MotivationJobName, job.Name())
}

func TestMotivationJob_DefaultRandomPicksFromList(t *testing.T) {
	sender := &fakeSender{}
	msgs := presenter.DefaultMessages()
	job := NewMotivationJob(sender, msgs, MotivationConfig{ChatID: 1}, nil)

	for range 20 {
		require.NoError(t, job.Run(context.Background()))
	}

	allowed := make([]string, 0, len(msgs.Motivations))
	for _, m := range msgs.Motivations {
		allowed = append(allowed, presenter.FormatMotivation(m))
	}
	for _, s := range sender.sent {
		assert.Contains(t, allowed, s.text)
	}
}

func TestMotivationJob_Errors(t *testing.T) {
	sendErr := errors.New("network down")
	job := NewMotivationJob(&fakeSender{err: sendErr}, presenter.DefaultMessages(), MotivationConfig{ChatID: 1}, logger.Discard())
	assert.ErrorIs(t, job.Run(context.Background()), sendErr)

	empty := NewMotivationJob(&fakeSender{}, presenter.Messages{}, MotivationConfig{ChatID: 1}, logger.Discard())
	assert.Error(t, empty.Run(context.Background()))
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS REQUEST
// ══════════════════════════════════════════════════════════════════════════════

func TestStatsRequestJob_SendsDayNumber(t *testing.T) {
	sender := &fakeSender{}
	msgs := presenter.DefaultMessages()
	days := fakeDays{dto: query.CurrentDayDTO{Started: true, Day: 5, StartDate: "2026-10-15"}}
	job := NewStatsRequestJob(sender, days, msgs, StatsRequestConfig{ChatID: 42}, logger.Discard())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].chatID)
	assert.Equal(t, msgs.FormatStatsRequest(5), sender.sent[0].text)
	assert.Equal(t, StatsRequestJobName, job.Name())
}

func TestStatsRequestJob_SkipsWhenNotStarted(t *testing.T) {
	sender := &fakeSender{}
	job := NewStatsRequestJob(sender, fakeDays{}, presenter.DefaultMessages(), StatsRequestConfig{ChatID: 42}, logger.Discard())

	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, sender.sent)
}

func TestStatsRequestJob_Errors(t *testing.T) {
	queryErr := errors.New("bad start date")
	job := NewStatsRequestJob(&fakeSender{}, fakeDays{err: queryErr}, presenter.DefaultMessages(), StatsRequestConfig{ChatID: 42}, logger.Discard())
	assert.ErrorIs(t, job.Run(context.Background()), queryErr)

	sendErr := errors.New("network down")
	days := fakeDays{dto: query.CurrentDayDTO{Started: true, Day: 1}}
	job = NewStatsRequestJob(&fakeSender{err: sendErr}, days, presenter.DefaultMessages(), StatsRequestConfig{ChatID: 42}, logger.Discard())
	assert.ErrorIs(t, job.Run(context.Background()), sendErr)
}
