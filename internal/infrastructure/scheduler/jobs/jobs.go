// Package jobs contains the bot's scheduled notifications.
package jobs

import "context"

// Job names.
const (
	MotivationJobName   = "motivation"
	StatsRequestJobName = "stats_request"
)

// Sender delivers a text message to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
