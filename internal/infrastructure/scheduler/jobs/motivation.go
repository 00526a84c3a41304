package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/habitbot/habit-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MOTIVATION JOB
// ══════════════════════════════════════════════════════════════════════════════

// MotivationSource picks and formats one affirmation. intn behaves like rand.IntN.
type MotivationSource interface {
	Motivation(intn func(n int) int) string
}

// MotivationJob sends a random affirmation to the user. It does not read
// or write the tracking record.
type MotivationJob struct {
	sender Sender
	chatID int64
	source MotivationSource
	intn   func(n int) int
	logger *slog.Logger
}

// MotivationConfig contains configuration for the motivation job.
type MotivationConfig struct {
	// ChatID is the recipient.
	ChatID int64

	// Intn overrides the random source (default rand.IntN).
	Intn func(n int) int
}

// NewMotivationJob creates a new MotivationJob.
func NewMotivationJob(sender Sender, source MotivationSource, config MotivationConfig, log *slog.Logger) *MotivationJob {
	if config.Intn == nil {
		config.Intn = rand.IntN
	}
	if log == nil {
		log = slog.Default()
	}
	return &MotivationJob{
		sender: sender,
		chatID: config.ChatID,
		source: source,
		intn:   config.Intn,
		logger: log.With(logger.Job(MotivationJobName)),
	}
}

// Name returns the job name.
func (j *MotivationJob) Name() string { return MotivationJobName }

// Description returns the job description.
func (j *MotivationJob) Description() string { return "Sends a random motivational message" }

// Run sends one message.
func (j *MotivationJob) Run(ctx context.Context) error {
	text := j.source.Motivation(j.intn)
	if text == "" {
		return errors.New("motivation: no messages configured")
	}

	if err := j.sender.SendText(ctx, j.chatID, text); err != nil {
		return fmt.Errorf("motivation: %w", err)
	}

	j.logger.DebugContext(ctx, "motivation sent", logger.ChatID(j.chatID))
	return nil
}
