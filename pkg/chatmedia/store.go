package chatmedia

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"video/mp4":       ".mp4",
	"video/3gpp":      ".3gp",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
}

// Store writes media snapshots for scheduled posts into a single directory.
type Store struct {
	fs           afero.Fs
	dir          string
	maxImageSize int64
	maxVideoSize int64
	now          func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithSizeLimits rejects uploads larger than the given byte counts. Zero means unlimited.
func WithSizeLimits(maxImage, maxVideo int64) Option {
	return func(s *Store) {
		s.maxImageSize = maxImage
		s.maxVideoSize = maxVideo
	}
}

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(fs afero.Fs, dir string, opts ...Option) *Store {
	s := &Store{fs: fs, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the media directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload as <unix-nanos>-<short-uuid>.<ext> and returns its path.
func (s *Store) Save(kind domain.Kind, upload domain.MediaUpload) (string, error) {
	if !kind.IsMedia() {
		return "", pkgError.ValidationError(fmt.Sprintf("unsupported media kind %q", kind))
	}
	if len(upload.Data) == 0 {
		return "", pkgError.ValidationError(fmt.Sprintf("empty %s upload", kind))
	}
	if limit := s.limitFor(kind); limit > 0 && int64(len(upload.Data)) > limit {
		return "", pkgError.ValidationError(fmt.Sprintf("%s is %s, limit is %s", kind,
			humanize.Bytes(uint64(len(upload.Data))), humanize.Bytes(uint64(limit))))
	}
	detected, err := DetectMimeType(kind, upload.Data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(upload.MimeType) == "" {
		upload.MimeType = detected
	}

	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", pkgError.PersistenceError(fmt.Sprintf("failed to create media dir: %v", err))
	}

	name := fmt.Sprintf("%d-%s%s", s.now().UnixNano(), uuid.NewString()[:8], extensionFor(kind, upload.MimeType))
	path := filepath.Join(s.dir, name)
	if err := afero.WriteFile(s.fs, path, upload.Data, 0644); err != nil {
		return "", pkgError.PersistenceError(fmt.Sprintf("failed to write media %s: %v", name, err))
	}
	return path, nil
}

// Read loads a snapshot back into memory.
func (s *Store) Read(path string) ([]byte, error) {
	return afero.ReadFile(s.fs, path)
}

// Remove deletes a snapshot. Missing files are not an error.
func (s *Store) Remove(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := s.fs.Remove(path); err != nil {
		if exists, _ := afero.Exists(s.fs, path); !exists {
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) limitFor(kind domain.Kind) int64 {
	if kind == domain.KindVideo {
		return s.maxVideoSize
	}
	return s.maxImageSize
}

func extensionFor(kind domain.Kind, mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if ext, ok := extensions[mimeType]; ok {
		return ext
	}
	if kind == domain.KindVideo {
		return ".mp4"
	}
	return ".jpg"
}
