package domain

import (
	"context"
	"time"
)

type ContentKind string

const (
	ContentText     ContentKind = "text"
	ContentImage    ContentKind = "image"
	ContentVideo    ContentKind = "video"
	ContentAudio    ContentKind = "audio"
	ContentDocument ContentKind = "document"
	ContentSticker  ContentKind = "sticker"
)

// Content is the body of a message, either the command message itself or
// the message it quotes. Media bytes are fetched lazily through Download.
type Content struct {
	Kind     ContentKind
	Text     string // Body for text, caption for media
	MimeType string
	Size     uint64
	Download func(ctx context.Context) ([]byte, error)
}

// HasMedia reports whether the content carries downloadable media.
func (c *Content) HasMedia() bool {
	return c != nil && c.Kind != ContentText && c.Download != nil
}

// Message is an incoming chat message converted from the platform event.
type Message struct {
	ID        string
	ChatID    string
	SenderID  string
	PushName  string
	IsGroup   bool
	FromMe    bool
	Text      string
	Attached  *Content // Media sent together with the command
	Quoted    *Content // Message the command replies to
	Timestamp time.Time
}
