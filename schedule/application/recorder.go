package application

import (
	"context"

	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/sirupsen/logrus"
)

// Recorder writes lifecycle entries to the audit log and the event bus.
// Both sinks are optional and their failures never reach the caller.
type Recorder struct {
	history domain.IHistoryRepository
	events  domain.EventPublisher
}

func NewRecorder(history domain.IHistoryRepository, events domain.EventPublisher) *Recorder {
	return &Recorder{history: history, events: events}
}

func (r *Recorder) Record(ctx context.Context, entry domain.HistoryEntry) {
	if r == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	if r.history != nil {
		if err := r.history.Append(ctx, entry); err != nil {
			logrus.WithError(err).Warnf("[HISTORY] Failed to record %s for post %s", entry.Event, entry.PostID)
		}
	}
	if r.events != nil {
		if err := r.events.Publish(ctx, entry); err != nil {
			logrus.WithError(err).Warnf("[EVENTS] Failed to publish %s for post %s", entry.Event, entry.PostID)
		}
	}
}

// Recent returns the latest audit entries, or nothing when no history is kept.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if r == nil || r.history == nil {
		return []domain.HistoryEntry{}, nil
	}
	return r.history.Recent(ctx, limit)
}
