// Package handler contains Telegram command and message handlers.
// Handlers return a Response; sending it is the router's job.
package handler

// Request carries the fields of an incoming message a handler needs.
type Request struct {
	TelegramID int64
	ChatID     int64
	MessageID  int

	// Text is the full message text.
	Text string

	// Args is the text after the command, if any.
	Args string
}

// Response is the reply to send. An empty Text means no reply.
type Response struct {
	Text string
}
