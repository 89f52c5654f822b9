package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options tunes a TaskScheduler. Zero values fall back to the defaults below.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
	SendTimeout  time.Duration
	MinSendGap   time.Duration
	LockTTL      time.Duration

	// Optional cross-process guard for a schedule file shared by several
	// processes, e.g. a Valkey lease. The store is reloaded under it.
	AcquireLock func(key string, expiration time.Duration) bool
	ReleaseLock func(key string)

	Now func() time.Time
}

// TickResult summarizes one scan of the store.
type TickResult struct {
	Skipped bool      `json:"skipped"`
	Due     int       `json:"due"`
	Sent    int       `json:"sent"`
	Failed  int       `json:"failed"`
	At      time.Time `json:"at"`
}

// SchedulerStatus is a snapshot for health reporting.
type SchedulerStatus struct {
	Running    bool       `json:"running"`
	Interval   string     `json:"interval"`
	Pending    int        `json:"pending"`
	LastTick   time.Time  `json:"last_tick"`
	LastResult TickResult `json:"last_result"`
}

// TaskScheduler periodically takes due posts out of the store and publishes
// them as status updates. Every due post is attempted exactly once.
type TaskScheduler struct {
	store    domain.IScheduleStore
	sender   domain.StatusSender
	recorder *Recorder
	limiter  *rate.Limiter

	interval     time.Duration
	startupDelay time.Duration
	sendTimeout  time.Duration
	lock         SharedLock
	now          func() time.Time

	busy sync.Mutex

	mu         sync.RWMutex
	running    bool
	lastResult TickResult
	done       chan struct{}
}

// NewTaskScheduler creates a new instance of the scheduler.
func NewTaskScheduler(store domain.IScheduleStore, sender domain.StatusSender, recorder *Recorder, opts Options) *TaskScheduler {
	s := &TaskScheduler{
		store:        store,
		sender:       sender,
		recorder:     recorder,
		interval:     opts.Interval,
		startupDelay: opts.StartupDelay,
		sendTimeout:  opts.SendTimeout,
		lock:         SharedLock{Acquire: opts.AcquireLock, Release: opts.ReleaseLock, TTL: opts.LockTTL},
		now:          opts.Now,
	}
	if s.interval <= 0 {
		s.interval = time.Minute
	}
	if s.startupDelay < 0 {
		s.startupDelay = 0
	}
	if s.sendTimeout <= 0 {
		s.sendTimeout = 2 * time.Minute
	}
	if s.lock.TTL <= 0 {
		s.lock.TTL = s.interval
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.MinSendGap > 0 {
		s.limiter = rate.NewLimiter(rate.Every(opts.MinSendGap), 1)
	}
	return s
}

// StartLoop runs one scan shortly after startup and then one per interval
// until ctx is cancelled.
func (s *TaskScheduler) StartLoop(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.mu.Unlock()

	logrus.Infof("[SCHEDULER] Status scheduler started (interval %s, first scan in %s)", s.interval, s.startupDelay)
	go s.runWorker(ctx)
}

// Wait blocks until the loop started by StartLoop has exited.
func (s *TaskScheduler) Wait() {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	if done != nil {
		<-done
	}
}

func (s *TaskScheduler) runWorker(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		close(s.done)
		s.mu.Unlock()
		logrus.Info("[SCHEDULER] Status scheduler stopped")
	}()

	startup := time.NewTimer(s.startupDelay)
	select {
	case <-ctx.Done():
		startup.Stop()
		return
	case <-startup.C:
	}
	s.Tick(ctx, s.now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick scans the store once at now. A tick that starts while another one is
// still sending is skipped. Sends are not interrupted by ctx cancellation.
func (s *TaskScheduler) Tick(ctx context.Context, now time.Time) TickResult {
	if !s.busy.TryLock() {
		logrus.Warn("[SCHEDULER] Previous scan still running, skipping this tick")
		return TickResult{Skipped: true, At: now}
	}
	defer s.busy.Unlock()

	ctx = context.WithoutCancel(ctx)
	now = now.In(s.store.Location())
	result := TickResult{At: now}

	shared := s.lock.enabled()
	var due []domain.ScheduledPost
	if shared {
		claimed, ok := s.claimShared(now)
		if !ok {
			result.Skipped = true
			return result
		}
		due = claimed
	} else {
		due = s.store.TakeDue(now)
	}
	result.Due = len(due)

	if len(due) > 0 {
		logrus.Infof("[SCHEDULER] %d status post(s) due", len(due))

		for _, post := range due {
			if err := s.execute(ctx, post); err != nil {
				result.Failed++
				logrus.WithError(err).Errorf("[SCHEDULER] Status post %s failed, discarding", post.ID)
				entry := domain.NewHistoryEntry(post, domain.EventFailed, s.now())
				entry.Error = err.Error()
				s.recorder.Record(ctx, entry)
				continue
			}
			result.Sent++
			logrus.Infof("[SCHEDULER] Status post %s (%s) published", post.ID, post.Kind())
			s.recorder.Record(ctx, domain.NewHistoryEntry(post, domain.EventSent, s.now()))
		}

		if !shared {
			if err := s.store.Save(); err != nil {
				logrus.WithError(err).Error("[SCHEDULER] Failed to persist store after scan")
			}
		}
	}

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	return result
}

// claimShared takes the due posts out of a shared schedule file while holding
// the lease: reload, take, persist the removal, release. Sending happens after
// the lease is released. When the removal cannot be persisted nothing is
// sent and the posts stay in the file for the next scan.
func (s *TaskScheduler) claimShared(now time.Time) ([]domain.ScheduledPost, bool) {
	if !s.lock.tryLock() {
		logrus.Debug("[SCHEDULER] Another process holds the store lock, skipping")
		return nil, false
	}
	defer s.lock.unlock()

	if err := s.store.Reload(); err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Failed to reload shared store, skipping")
		return nil, false
	}
	due := s.store.TakeDue(now)
	if len(due) == 0 {
		return nil, true
	}
	if err := s.store.Save(); err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Could not persist claim of %d post(s), leaving them for the next scan", len(due))
		return nil, false
	}
	return due, true
}

// execute sends one post. Its media is deleted whatever the outcome and a
// panic in the sender is reported as a failure.
func (s *TaskScheduler) execute(ctx context.Context, post domain.ScheduledPost) (err error) {
	defer s.store.DiscardMedia(post)
	defer func() {
		if r := recover(); r != nil {
			err = pkgError.SendFailure{PostID: post.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return pkgError.SendFailure{PostID: post.ID, Err: err}
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	if err := s.sender.SendStatus(sendCtx, post.Payload); err != nil {
		return pkgError.SendFailure{PostID: post.ID, Err: err}
	}
	return nil
}

// Status reports the loop state for health checks.
func (s *TaskScheduler) Status() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SchedulerStatus{
		Running:    s.running,
		Interval:   s.interval.String(),
		Pending:    s.store.Len(),
		LastTick:   s.lastResult.At,
		LastResult: s.lastResult,
	}
}
