package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/habitbot/habit-bot/internal/application/query"
	"github.com/habitbot/habit-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS REQUEST JOB
// ══════════════════════════════════════════════════════════════════════════════

// DayQuerier reports the current day number.
type DayQuerier interface {
	Handle(ctx context.Context) (query.CurrentDayDTO, error)
}

// StatsRequestFormatter renders the evening prompt.
type StatsRequestFormatter interface {
	FormatStatsRequest(day int) string
}

// StatsRequestJob asks the user for the day's answer. Nothing is sent until
// tracking has started, and sending records nothing.
type StatsRequestJob struct {
	sender    Sender
	chatID    int64
	days      DayQuerier
	formatter StatsRequestFormatter
	logger    *slog.Logger
}

// StatsRequestConfig contains configuration for the stats request job.
type StatsRequestConfig struct {
	// ChatID is the recipient.
	ChatID int64
}

// NewStatsRequestJob creates a new StatsRequestJob.
func NewStatsRequestJob(
	sender Sender,
	days DayQuerier,
	formatter StatsRequestFormatter,
	config StatsRequestConfig,
	log *slog.Logger,
) *StatsRequestJob {
	if log == nil {
		log = slog.Default()
	}
	return &StatsRequestJob{
		sender:    sender,
		chatID:    config.ChatID,
		days:      days,
		formatter: formatter,
		logger:    log.With(logger.Job(StatsRequestJobName)),
	}
}

// Name returns the job name.
func (j *StatsRequestJob) Name() string { return StatsRequestJobName }

// Description returns the job description.
func (j *StatsRequestJob) Description() string { return "Asks for the daily check-in" }

// Run sends the prompt with the current day number.
func (j *StatsRequestJob) Run(ctx context.Context) error {
	day, err := j.days.Handle(ctx)
	if err != nil {
		return fmt.Errorf("stats_request: %w", err)
	}
	if !day.Started {
		j.logger.DebugContext(ctx, "tracking not started, skipping stats request")
		return nil
	}

	if err := j.sender.SendText(ctx, j.chatID, j.formatter.FormatStatsRequest(day.Day)); err != nil {
		return fmt.Errorf("stats_request: %w", err)
	}

	j.logger.DebugContext(ctx, "stats request sent", logger.ChatID(j.chatID), slog.Int("day", day.Day))
	return nil
}
