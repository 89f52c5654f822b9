package domain

import "context"

// Transport is what a chat platform must provide so command handlers can
// answer without knowing the platform.
type Transport interface {
	// ID returns the platform or session name.
	ID() string

	// SendMessage sends a plain text message.
	// quoteMessageID is optional; when set the message replies to it.
	SendMessage(ctx context.Context, chatID string, text string, quoteMessageID string) error
}
