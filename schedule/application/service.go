package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/sirupsen/logrus"
)

// ScheduleService is the entry point shared by chat commands and the REST API.
type ScheduleService struct {
	store    domain.IScheduleStore
	recorder *Recorder
	lock     SharedLock
	now      func() time.Time
}

func NewScheduleService(store domain.IScheduleStore, recorder *Recorder) *ScheduleService {
	return &ScheduleService{store: store, recorder: recorder, now: time.Now}
}

// WithClock replaces the clock used for timestamps and "until" texts.
func (s *ScheduleService) WithClock(now func() time.Time) *ScheduleService {
	s.now = now
	return s
}

// WithSharedLock makes every mutation reload the store under lock first, for
// schedule files shared by several processes.
func (s *ScheduleService) WithSharedLock(lock SharedLock) *ScheduleService {
	s.lock = lock
	return s
}

// Now returns the current time in the scheduler timezone.
func (s *ScheduleService) Now() time.Time {
	return s.now().In(s.store.Location())
}

func (s *ScheduleService) Location() *time.Location {
	return s.store.Location()
}

// Schedule stores a new post and returns it with its assigned id.
func (s *ScheduleService) Schedule(ctx context.Context, c domain.Candidate) (domain.ScheduledPost, error) {
	var (
		id   string
		post domain.ScheduledPost
		ok   bool
	)
	err := s.withStore(ctx, func() error {
		var err error
		id, err = s.store.Add(c)
		if err != nil {
			return err
		}
		post, ok = s.find(id)
		return nil
	})
	if err != nil {
		return domain.ScheduledPost{}, err
	}
	if !ok {
		// Already taken by a concurrent scan.
		post = domain.ScheduledPost{ID: id, ScheduledAt: c.ScheduledAt, CreatedBy: c.CreatedBy, FromJID: c.FromJID}
	}

	logrus.Infof("[SCHEDULE] Post %s (%s) scheduled for %s by %s", id, c.Kind, c.ScheduledAt.Format(time.RFC3339), c.CreatedBy)
	entry := domain.NewHistoryEntry(post, domain.EventScheduled, s.now())
	entry.Kind = c.Kind
	s.recorder.Record(ctx, entry)
	return post, nil
}

// List returns pending posts ordered by time.
func (s *ScheduleService) List(ctx context.Context) []domain.ScheduledPost {
	var posts []domain.ScheduledPost
	err := s.withStore(ctx, func() error {
		posts = s.store.ListPending()
		return nil
	})
	if err != nil {
		logrus.WithError(err).Warn("[SCHEDULE] Listing from memory, shared store unavailable")
		return s.store.ListPending()
	}
	return posts
}

// Cancel removes a pending post.
func (s *ScheduleService) Cancel(ctx context.Context, id string) (domain.ScheduledPost, error) {
	var post domain.ScheduledPost
	err := s.withStore(ctx, func() error {
		var err error
		post, err = s.store.Cancel(id)
		return err
	})
	if err != nil {
		return domain.ScheduledPost{}, err
	}
	logrus.Infof("[SCHEDULE] Post %s cancelled", post.ID)
	s.recorder.Record(ctx, domain.NewHistoryEntry(post, domain.EventCancelled, s.now()))
	return post, nil
}

// History returns the newest audit entries.
func (s *ScheduleService) History(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	return s.recorder.Recent(ctx, limit)
}

// withStore runs fn on a fresh copy of a shared store under its lock, or
// directly when the store is not shared.
func (s *ScheduleService) withStore(ctx context.Context, fn func() error) error {
	if !s.lock.enabled() {
		return fn()
	}
	if err := s.lock.lock(ctx); err != nil {
		return err
	}
	defer s.lock.unlock()

	if err := s.store.Reload(); err != nil {
		return err
	}
	return fn()
}

func (s *ScheduleService) find(id string) (domain.ScheduledPost, bool) {
	for _, p := range s.store.ListPending() {
		if p.ID == id {
			return p, true
		}
	}
	return domain.ScheduledPost{}, false
}
