package domain

import (
	"fmt"
	"strconv"
	"time"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// IsMedia reports whether the kind carries a file on disk.
func (k Kind) IsMedia() bool {
	return k == KindImage || k == KindVideo
}

// Payload is the content of a status post. Exactly one implementation is
// attached to every ScheduledPost and it decides the post kind.
type Payload interface {
	Kind() Kind
}

type TextPayload struct {
	Text string
}

func (TextPayload) Kind() Kind { return KindText }

type ImagePayload struct {
	MediaPath string
	Caption   string
}

func (ImagePayload) Kind() Kind { return KindImage }

type VideoPayload struct {
	MediaPath string
	Caption   string
}

func (VideoPayload) Kind() Kind { return KindVideo }

// ScheduledPost is one pending status update.
type ScheduledPost struct {
	ID          string
	ScheduledAt time.Time
	Payload     Payload
	FromJID     string // Chat the schedule command came from
	CreatedBy   string // Sender JID
	CreatedAt   time.Time
}

func (p ScheduledPost) Kind() Kind {
	if p.Payload == nil {
		return ""
	}
	return p.Payload.Kind()
}

// MediaPath returns the snapshot path for image and video posts.
func (p ScheduledPost) MediaPath() string {
	switch pl := p.Payload.(type) {
	case ImagePayload:
		return pl.MediaPath
	case VideoPayload:
		return pl.MediaPath
	}
	return ""
}

// Preview returns the text or caption of the post, if any.
func (p ScheduledPost) Preview() string {
	switch pl := p.Payload.(type) {
	case TextPayload:
		return pl.Text
	case ImagePayload:
		return pl.Caption
	case VideoPayload:
		return pl.Caption
	}
	return ""
}

// MediaUpload is raw media handed over by the command layer before it is
// snapshotted into the media directory.
type MediaUpload struct {
	Data     []byte
	MimeType string
}

// Candidate is a schedule request that has not been validated yet.
type Candidate struct {
	ScheduledAt time.Time
	Kind        Kind
	Text        string // Text posts only
	Caption     string // Media posts only
	Media       *MediaUpload
	FromJID     string
	CreatedBy   string
}

// PostRecord is the persisted JSON shape of a ScheduledPost.
type PostRecord struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Type      Kind      `json:"type"`
	Content   string    `json:"content,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	MediaPath string    `json:"mediaPath,omitempty"`
	FromJID   string    `json:"fromJid,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// Record converts the post into its persisted shape.
func (p ScheduledPost) Record() PostRecord {
	rec := PostRecord{
		ID:        p.ID,
		Time:      p.ScheduledAt,
		Type:      p.Kind(),
		FromJID:   p.FromJID,
		CreatedAt: p.CreatedAt,
		CreatedBy: p.CreatedBy,
	}
	switch pl := p.Payload.(type) {
	case TextPayload:
		rec.Content = pl.Text
	case ImagePayload:
		rec.MediaPath = pl.MediaPath
		rec.Caption = pl.Caption
	case VideoPayload:
		rec.MediaPath = pl.MediaPath
		rec.Caption = pl.Caption
	}
	return rec
}

// Post rebuilds a ScheduledPost with its times expressed in loc.
func (r PostRecord) Post(loc *time.Location) (ScheduledPost, error) {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := strconv.ParseUint(r.ID, 10, 64); err != nil {
		return ScheduledPost{}, fmt.Errorf("record has invalid id %q", r.ID)
	}

	var payload Payload
	switch r.Type {
	case KindText:
		if r.Content == "" {
			return ScheduledPost{}, fmt.Errorf("text record %s has no content", r.ID)
		}
		payload = TextPayload{Text: r.Content}
	case KindImage, KindVideo:
		if r.MediaPath == "" {
			return ScheduledPost{}, fmt.Errorf("%s record %s has no media path", r.Type, r.ID)
		}
		if r.Type == KindImage {
			payload = ImagePayload{MediaPath: r.MediaPath, Caption: r.Caption}
		} else {
			payload = VideoPayload{MediaPath: r.MediaPath, Caption: r.Caption}
		}
	default:
		return ScheduledPost{}, fmt.Errorf("record %s has unknown type %q", r.ID, r.Type)
	}

	return ScheduledPost{
		ID:          r.ID,
		ScheduledAt: r.Time.In(loc),
		Payload:     payload,
		FromJID:     r.FromJID,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.In(loc),
	}, nil
}

// Less orders posts by scheduled time, then by numeric id.
func Less(a, b ScheduledPost) bool {
	if !a.ScheduledAt.Equal(b.ScheduledAt) {
		return a.ScheduledAt.Before(b.ScheduledAt)
	}
	return IDValue(a.ID) < IDValue(b.ID)
}

// IDValue returns the numeric value of a post id, 0 when it is not numeric.
func IDValue(id string) uint64 {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
