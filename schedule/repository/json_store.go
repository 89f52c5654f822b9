package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// JSONStore keeps pending status posts in memory and mirrors them to a JSON
// array on disk. The id counter lives in a sidecar "<path>.seq" file so ids
// are never reused across restarts.
type JSONStore struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	media  domain.IMediaStore
	loc    *time.Location
	now    func() time.Time
	onDrop func(domain.ScheduledPost)

	posts  map[string]domain.ScheduledPost
	nextID uint64
}

type StoreOption func(*JSONStore)

// WithClock overrides the time source used for validation and load-time expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(s *JSONStore) {
		s.now = now
	}
}

// WithDropHook is called for every entry discarded at load because its time passed.
func WithDropHook(fn func(domain.ScheduledPost)) StoreOption {
	return func(s *JSONStore) {
		s.onDrop = fn
	}
}

func NewJSONStore(fs afero.Fs, path string, media domain.IMediaStore, loc *time.Location, opts ...StoreOption) *JSONStore {
	if loc == nil {
		loc = time.UTC
	}
	s := &JSONStore{
		fs:     fs,
		path:   path,
		media:  media,
		loc:    loc,
		now:    time.Now,
		posts:  make(map[string]domain.ScheduledPost),
		nextID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JSONStore) seqPath() string {
	return s.path + ".seq"
}

func (s *JSONStore) Location() *time.Location {
	return s.loc
}

// Load replaces the in-memory state with the file contents. Entries whose time
// is not strictly after now are dropped together with their media. A missing
// file creates an empty one; an unreadable file leaves the store empty.
func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = make(map[string]domain.ScheduledPost)
	s.nextID = s.readSeq()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Infof("[STORE] No schedule file at %s, starting empty", s.path)
			return s.saveLocked()
		}
		logrus.WithError(err).Errorf("[STORE] Failed to read %s, starting empty", s.path)
		return nil
	}

	records, err := decodeRecords(data)
	if err != nil {
		logrus.WithError(err).Errorf("[STORE] Failed to parse %s, starting empty", s.path)
		s.backupCorrupt()
		return nil
	}

	now := s.now()
	changed := false
	var maxID uint64
	for _, rec := range records {
		post, err := rec.Post(s.loc)
		if err != nil {
			logrus.WithError(err).Warn("[STORE] Skipping invalid record")
			s.removeMediaPath(rec.MediaPath, rec.ID)
			changed = true
			continue
		}
		if n := domain.IDValue(post.ID); n > maxID {
			maxID = n
		}
		if first, dup := s.posts[post.ID]; dup {
			logrus.Warnf("[STORE] Duplicate id %s in schedule file, keeping the first", post.ID)
			if post.MediaPath() != first.MediaPath() {
				s.removeMedia(post)
			}
			changed = true
			continue
		}
		if !post.ScheduledAt.After(now) {
			logrus.Infof("[STORE] Dropping expired %s post %s scheduled for %s", post.Kind(), post.ID, post.ScheduledAt.Format(time.RFC3339))
			s.removeMedia(post)
			if s.onDrop != nil {
				s.onDrop(post)
			}
			changed = true
			continue
		}
		s.posts[post.ID] = post
	}

	if maxID+1 > s.nextID {
		s.nextID = maxID + 1
	}

	logrus.Infof("[STORE] Loaded %d pending status posts (next id %d)", len(s.posts), s.nextID)

	if changed {
		return s.saveLocked()
	}
	return nil
}

// Reload replaces the in-memory posts with the current file contents, for
// processes that share one schedule file. Nothing is expired here: posts that
// came due meanwhile stay until TakeDue claims them. The id counter never
// moves backwards. On a read or parse error memory is left untouched.
func (s *JSONStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return pkgError.PersistenceError(fmt.Sprintf("failed to read %s: %v", s.path, err))
	}
	records, err := decodeRecords(data)
	if err != nil {
		return pkgError.PersistenceError(fmt.Sprintf("failed to parse %s: %v", s.path, err))
	}

	posts := make(map[string]domain.ScheduledPost, len(records))
	var maxID uint64
	for _, rec := range records {
		post, err := rec.Post(s.loc)
		if err != nil {
			logrus.WithError(err).Debug("[STORE] Skipping invalid record on reload")
			continue
		}
		if n := domain.IDValue(post.ID); n > maxID {
			maxID = n
		}
		if _, dup := posts[post.ID]; !dup {
			posts[post.ID] = post
		}
	}

	s.posts = posts
	if seq := s.readSeq(); seq > s.nextID {
		s.nextID = seq
	}
	if maxID+1 > s.nextID {
		s.nextID = maxID + 1
	}
	return nil
}

// Save writes the full store to disk.
func (s *JSONStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Add validates the candidate, snapshots its media, assigns the next id and
// persists. A failed save is logged and the id is still returned.
func (s *JSONStore) Add(c domain.Candidate) (string, error) {
	payload, err := s.buildPayload(c)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.FormatUint(s.nextID, 10)
	s.nextID++

	post := domain.ScheduledPost{
		ID:          id,
		ScheduledAt: c.ScheduledAt.In(s.loc),
		Payload:     payload,
		FromJID:     c.FromJID,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   s.now().In(s.loc),
	}
	s.posts[id] = post

	if err := s.saveLocked(); err != nil {
		logrus.WithError(err).Errorf("[STORE] Post %s kept in memory only", id)
	}
	return id, nil
}

func (s *JSONStore) buildPayload(c domain.Candidate) (domain.Payload, error) {
	if c.ScheduledAt.IsZero() {
		return nil, pkgError.ValidationError("missing schedule time")
	}
	if !c.ScheduledAt.After(s.now()) {
		return nil, pkgError.ValidationError("cannot schedule in the past")
	}

	switch c.Kind {
	case domain.KindText:
		text := strings.TrimSpace(c.Text)
		if text == "" {
			return nil, pkgError.ValidationError("text status needs some text")
		}
		if c.Media != nil {
			return nil, pkgError.ValidationError("text status cannot carry media")
		}
		return domain.TextPayload{Text: text}, nil
	case domain.KindImage, domain.KindVideo:
		if c.Media == nil || len(c.Media.Data) == 0 {
			return nil, pkgError.ValidationError(fmt.Sprintf("%s status needs the %s itself", c.Kind, c.Kind))
		}
		if c.Text != "" {
			return nil, pkgError.ValidationError("media status takes a caption, not text content")
		}
		path, err := s.media.Save(c.Kind, *c.Media)
		if err != nil {
			var generic pkgError.GenericError
			if errors.As(err, &generic) {
				return nil, err
			}
			return nil, pkgError.PersistenceError(fmt.Sprintf("failed to store media: %v", err))
		}
		caption := strings.TrimSpace(c.Caption)
		if c.Kind == domain.KindImage {
			return domain.ImagePayload{MediaPath: path, Caption: caption}, nil
		}
		return domain.VideoPayload{MediaPath: path, Caption: caption}, nil
	case "":
		return nil, pkgError.ValidationError("nothing to schedule, reply to an image, video or text")
	default:
		return nil, pkgError.ValidationError(fmt.Sprintf("unsupported content type %q", c.Kind))
	}
}

// ListPending returns every pending post ordered by time, then id.
func (s *JSONStore) ListPending() []domain.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ScheduledPost, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	sortPosts(out)
	return out
}

// Cancel removes a pending post and its media, then persists.
func (s *JSONStore) Cancel(id string) (domain.ScheduledPost, error) {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return domain.ScheduledPost{}, pkgError.NotFoundError(fmt.Sprintf("scheduled status %s not found", id))
	}
	delete(s.posts, id)
	s.removeMedia(post)

	if err := s.saveLocked(); err != nil {
		logrus.WithError(err).Errorf("[STORE] Cancellation of %s not persisted", id)
	}
	return post, nil
}

// TakeDue removes and returns every post due at now, oldest first. The removal
// is not persisted; the caller saves once it has processed the batch.
func (s *JSONStore) TakeDue(now time.Time) []domain.ScheduledPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []domain.ScheduledPost
	for id, p := range s.posts {
		if !p.ScheduledAt.After(now) {
			due = append(due, p)
			delete(s.posts, id)
		}
	}
	sortPosts(due)
	return due
}

// DiscardMedia deletes the media snapshot of a post that left the store.
func (s *JSONStore) DiscardMedia(post domain.ScheduledPost) {
	s.removeMedia(post)
}

func (s *JSONStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

func (s *JSONStore) removeMedia(post domain.ScheduledPost) {
	s.removeMediaPath(post.MediaPath(), post.ID)
}

func (s *JSONStore) removeMediaPath(path, id string) {
	if path == "" || s.media == nil {
		return
	}
	if err := s.media.Remove(path); err != nil {
		logrus.WithError(err).Warnf("[STORE] Failed to delete media %s of post %s", path, id)
	}
}

func (s *JSONStore) saveLocked() error {
	posts := make([]domain.ScheduledPost, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	sortPosts(posts)

	records := make([]domain.PostRecord, 0, len(posts))
	for _, p := range posts {
		records = append(records, p.Record())
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return pkgError.PersistenceError(fmt.Sprintf("failed to encode schedules: %v", err))
	}

	if err := s.writeAtomic(s.path, data); err != nil {
		return err
	}
	return s.writeAtomic(s.seqPath(), []byte(strconv.FormatUint(s.nextID, 10)))
}

func (s *JSONStore) writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return pkgError.PersistenceError(fmt.Sprintf("failed to create %s: %v", dir, err))
		}
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return pkgError.PersistenceError(fmt.Sprintf("failed to write %s: %v", tmp, err))
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return pkgError.PersistenceError(fmt.Sprintf("failed to replace %s: %v", path, err))
	}
	return nil
}

func (s *JSONStore) readSeq() uint64 {
	data, err := afero.ReadFile(s.fs, s.seqPath())
	if err != nil {
		return 1
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || n == 0 {
		logrus.Warnf("[STORE] Ignoring invalid id counter in %s", s.seqPath())
		return 1
	}
	return n
}

func (s *JSONStore) backupCorrupt() {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := s.fs.Rename(s.path, backup); err != nil {
		logrus.WithError(err).Warnf("[STORE] Could not move unreadable file aside")
		return
	}
	logrus.Warnf("[STORE] Unreadable schedule file moved to %s", backup)
}

func decodeRecords(data []byte) ([]domain.PostRecord, error) {
	var records []domain.PostRecord
	if len(strings.TrimSpace(string(data))) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func sortPosts(posts []domain.ScheduledPost) {
	sort.Slice(posts, func(i, j int) bool {
		return domain.Less(posts[i], posts[j])
	})
}
