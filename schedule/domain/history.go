package domain

import "time"

type HistoryEvent string

const (
	EventScheduled HistoryEvent = "scheduled"
	EventSent      HistoryEvent = "sent"
	EventFailed    HistoryEvent = "failed"
	EventCancelled HistoryEvent = "cancelled"
	EventDropped   HistoryEvent = "dropped" // Expired while the process was down
)

// HistoryEntry is one line of the delivery audit log. It is also the body of
// published lifecycle events.
type HistoryEntry struct {
	ID          uint         `json:"-"`
	PostID      string       `json:"post_id"`
	Kind        Kind         `json:"kind"`
	Event       HistoryEvent `json:"event"`
	ScheduledAt time.Time    `json:"scheduled_at"`
	Preview     string       `json:"preview,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty"`
	Error       string       `json:"error,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// NewHistoryEntry builds an entry describing event for post.
func NewHistoryEntry(post ScheduledPost, event HistoryEvent, occurredAt time.Time) HistoryEntry {
	return HistoryEntry{
		PostID:      post.ID,
		Kind:        post.Kind(),
		Event:       event,
		ScheduledAt: post.ScheduledAt,
		Preview:     post.Preview(),
		CreatedBy:   post.CreatedBy,
		OccurredAt:  occurredAt,
	}
}
