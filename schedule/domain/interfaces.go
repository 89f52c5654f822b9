package domain

import (
	"context"
	"time"
)

// IScheduleStore keeps the pending posts and their on-disk snapshot.
type IScheduleStore interface {
	Load() error
	Reload() error
	Save() error
	Add(c Candidate) (string, error)
	ListPending() []ScheduledPost
	Cancel(id string) (ScheduledPost, error)
	TakeDue(now time.Time) []ScheduledPost
	DiscardMedia(post ScheduledPost)
	Len() int
	Location() *time.Location
}

// IMediaStore snapshots media bytes to disk and removes them later.
type IMediaStore interface {
	Save(kind Kind, upload MediaUpload) (string, error)
	Remove(path string) error
}

// IHistoryRepository is the append-only delivery audit log.
type IHistoryRepository interface {
	Append(ctx context.Context, entry HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// StatusSender posts a payload to the account's status feed.
type StatusSender interface {
	SendStatus(ctx context.Context, payload Payload) error
}

// EventPublisher broadcasts lifecycle events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, entry HistoryEntry) error
	Close()
}
