package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-wabot/pkg/chatmedia"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/AzielCF/az-wabot/schedule/repository"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLock stands in for the Valkey lease shared by several processes.
type memLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *memLock) Acquire(key string, _ time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return false
	}
	l.held[key] = true
	return true
}

func (l *memLock) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

// process is one bot instance working on a schedule file shared with others.
type process struct {
	store  *repository.JSONStore
	sender *fakeSender
	sched  *TaskScheduler
	svc    *ScheduleService
}

func newProcess(t *testing.T, fs afero.Fs, lock *memLock) *process {
	t.Helper()
	clock := func() time.Time { return base }
	store := repository.NewJSONStore(fs, "schedules.json", chatmedia.NewStore(fs, "media"), time.UTC, repository.WithClock(clock))
	require.NoError(t, store.Load())

	sender := &fakeSender{failOn: map[string]error{}}
	recorder := NewRecorder(&memoryHistory{}, nil)
	sched := NewTaskScheduler(store, sender, recorder, Options{
		AcquireLock: lock.Acquire,
		ReleaseLock: lock.Release,
		Now:         clock,
	})
	svc := NewScheduleService(store, recorder).
		WithClock(clock).
		WithSharedLock(SharedLock{Acquire: lock.Acquire, Release: lock.Release})
	return &process{store: store, sender: sender, sched: sched, svc: svc}
}

func textAt(at time.Time, text string) domain.Candidate {
	return domain.Candidate{ScheduledAt: at, Kind: domain.KindText, Text: text}
}

func TestSharedStore_DuePostSentByOneProcessOnly(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	lock := &memLock{}

	a := newProcess(t, fs, lock)
	_, err := a.svc.Schedule(ctx, textAt(base.Add(time.Minute), "morning"))
	require.NoError(t, err)
	b := newProcess(t, fs, lock)
	require.Equal(t, 1, b.store.Len())

	first := a.sched.Tick(ctx, base.Add(time.Minute))
	second := b.sched.Tick(ctx, base.Add(time.Minute))
	b.sched.Tick(ctx, base.Add(time.Hour))

	assert.Equal(t, 1, first.Sent)
	assert.Equal(t, 0, second.Due)
	assert.Len(t, a.sender.Sent(), 1)
	assert.Empty(t, b.sender.Sent())
	assert.Empty(t, lock.held)
}

func TestSharedStore_AddDoesNotRestoreClaimedPost(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	lock := &memLock{}

	a := newProcess(t, fs, lock)
	_, err := a.svc.Schedule(ctx, textAt(base.Add(time.Minute), "first"))
	require.NoError(t, err)
	b := newProcess(t, fs, lock)

	a.sched.Tick(ctx, base.Add(time.Minute))

	// b still holds "first" in memory from its startup load.
	post, err := b.svc.Schedule(ctx, textAt(base.Add(2*time.Minute), "second"))
	require.NoError(t, err)
	assert.Equal(t, "2", post.ID)

	b.sched.Tick(ctx, base.Add(2*time.Minute))

	assert.Equal(t, []domain.Payload{domain.TextPayload{Text: "first"}}, a.sender.Sent())
	assert.Equal(t, []domain.Payload{domain.TextPayload{Text: "second"}}, b.sender.Sent())
}

func TestSharedStore_CancelSeenByOtherProcess(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	lock := &memLock{}

	a := newProcess(t, fs, lock)
	b := newProcess(t, fs, lock)

	post, err := a.svc.Schedule(ctx, textAt(base.Add(time.Minute), "oops"))
	require.NoError(t, err)

	require.Len(t, b.svc.List(ctx), 1)
	_, err = b.svc.Cancel(ctx, post.ID)
	require.NoError(t, err)

	res := a.sched.Tick(ctx, base.Add(time.Minute))
	assert.Equal(t, 0, res.Due)
	assert.Empty(t, a.sender.Sent())
}

func TestSharedStore_UnpersistedClaimIsNotSent(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	lock := &memLock{}

	a := newProcess(t, fs, lock)
	_, err := a.svc.Schedule(ctx, textAt(base.Add(time.Minute), "once"))
	require.NoError(t, err)
	readOnly := newProcess(t, afero.NewReadOnlyFs(fs), lock)

	res := readOnly.sched.Tick(ctx, base.Add(time.Minute))
	assert.True(t, res.Skipped)
	assert.Empty(t, readOnly.sender.Sent())

	a.sched.Tick(ctx, base.Add(time.Minute))
	assert.Len(t, a.sender.Sent(), 1)
}

func TestSharedLock_WaitGivesUpWhenContextEnds(t *testing.T) {
	lock := SharedLock{Acquire: func(string, time.Duration) bool { return false }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, lock.lock(ctx))
}
