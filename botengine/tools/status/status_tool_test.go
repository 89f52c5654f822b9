package status

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-wabot/botengine"
	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	"github.com/AzielCF/az-wabot/pkg/chatmedia"
	"github.com/AzielCF/az-wabot/schedule/application"
	schedDomain "github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/AzielCF/az-wabot/schedule/repository"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeTransport struct {
	mu      sync.Mutex
	replies []string
}

func (f *fakeTransport) ID() string { return "fake" }

func (f *fakeTransport) SendMessage(_ context.Context, _ string, text string, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, text)
	return nil
}

func (f *fakeTransport) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}

type env struct {
	engine    *botengine.Engine
	transport *fakeTransport
	store     *repository.JSONStore
	service   *application.ScheduleService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	clock := func() time.Time { return now }
	store := repository.NewJSONStore(fs, "schedules.json", chatmedia.NewStore(fs, "media"), time.UTC, repository.WithClock(clock))
	require.NoError(t, store.Load())

	service := application.NewScheduleService(store, application.NewRecorder(nil, nil)).WithClock(clock)

	engine := botengine.NewEngine(".", []string{"628111"})
	engine.MustRegister(NewStatusTools(service, 5).Commands()...)
	transport := &fakeTransport{}
	engine.RegisterTransport(transport)

	return &env{engine: engine, transport: transport, store: store, service: service}
}

func (e *env) send(t *testing.T, text string, quoted *botDomain.Content) {
	t.Helper()
	handled, err := e.engine.Process(context.Background(), botDomain.Message{
		ID:       "MSG1",
		ChatID:   "628111@s.whatsapp.net",
		SenderID: "628111@s.whatsapp.net",
		Text:     text,
		Quoted:   quoted,
	})
	require.True(t, handled)
	require.NoError(t, err)
}

func TestScheduleCommand_TextAfterTime(t *testing.T) {
	e := newEnv(t)

	e.send(t, ".schedulestatus 2026-03-10 18:30 Good evening\nsee you", nil)

	pending := e.store.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, schedDomain.TextPayload{Text: "Good evening\nsee you"}, pending[0].Payload)
	assert.Equal(t, time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC), pending[0].ScheduledAt)
	assert.Equal(t, "628111@s.whatsapp.net", pending[0].CreatedBy)
	assert.Contains(t, e.transport.Last(), "#1")
	assert.Contains(t, e.transport.Last(), "9 hours from now")
}

func TestScheduleCommand_QuotedImageKeepsCaption(t *testing.T) {
	e := newEnv(t)

	e.send(t, ".sst 2026-03-11 07:00", &botDomain.Content{
		Kind:     botDomain.ContentImage,
		Text:     "Sunrise",
		MimeType: "image/jpeg",
		Download: func(context.Context) ([]byte, error) { return []byte("\xff\xd8\xff\xe0jpeg"), nil },
	})

	pending := e.store.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, schedDomain.KindImage, pending[0].Kind())
	img := pending[0].Payload.(schedDomain.ImagePayload)
	assert.Equal(t, "Sunrise", img.Caption)
	assert.NotEmpty(t, img.MediaPath)
}

func TestScheduleCommand_RejectsPastTime(t *testing.T) {
	e := newEnv(t)

	e.send(t, ".schedulestatus 2026-03-09 10:00 too late", nil)

	assert.Equal(t, 0, e.store.Len())
	assert.Contains(t, e.transport.Last(), "past")
}

func TestScheduleCommand_MissingTimeShowsUsage(t *testing.T) {
	e := newEnv(t)

	e.send(t, ".schedulestatus tomorrow", nil)

	assert.Contains(t, e.transport.Last(), "Usage: .schedulestatus "+scheduleUsage)
}

func TestScheduleCommand_OwnerOnly(t *testing.T) {
	e := newEnv(t)

	handled, err := e.engine.Process(context.Background(), botDomain.Message{
		ChatID:   "62999@s.whatsapp.net",
		SenderID: "62999@s.whatsapp.net",
		Text:     ".schedulestatus 2026-03-10 18:30 hi",
	})

	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, 0, e.store.Len())
	assert.Contains(t, e.transport.Last(), "only available to the bot owner")
}

func TestListAndCancelCommands(t *testing.T) {
	e := newEnv(t)
	e.send(t, ".liststatus", nil)
	assert.Contains(t, e.transport.Last(), "No status updates scheduled")

	e.send(t, ".sst 2026-03-10 12:00 first", nil)
	e.send(t, ".sst 2026-03-10 11:00 second", nil)

	e.send(t, ".lst", nil)
	list := e.transport.Last()
	assert.Contains(t, list, "(2)")
	assert.Less(t, strings.Index(list, "second"), strings.Index(list, "first"))

	e.send(t, ".cancelstatus #1", nil)
	assert.Contains(t, e.transport.Last(), "#1")
	assert.Equal(t, 1, e.store.Len())

	e.send(t, ".cst 1", nil)
	assert.Contains(t, e.transport.Last(), "not found")

	e.send(t, ".cst abc", nil)
	assert.Contains(t, e.transport.Last(), "Usage: .cancelstatus <id>")
}

func TestHistoryCommand_WithoutHistory(t *testing.T) {
	e := newEnv(t)

	e.send(t, ".statushistory", nil)
	assert.Contains(t, e.transport.Last(), "No status activity")

	e.send(t, ".sth 500", nil)
	assert.Contains(t, e.transport.Last(), "between 1 and 50")
}

func TestParseScheduleRequest(t *testing.T) {
	ctx := context.Background()
	download := func(context.Context) ([]byte, error) { return []byte("data"), nil }

	t.Run("quoted text used when no text given", func(t *testing.T) {
		c, err := ParseScheduleRequest(ctx, "2026-03-10 18:00", &botDomain.Content{Kind: botDomain.ContentText, Text: "quoted"}, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, schedDomain.KindText, c.Kind)
		assert.Equal(t, "quoted", c.Text)
	})

	t.Run("argument text overrides quoted text", func(t *testing.T) {
		c, err := ParseScheduleRequest(ctx, "2026-03-10 18:00 mine", &botDomain.Content{Kind: botDomain.ContentText, Text: "quoted"}, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, "mine", c.Text)
	})

	t.Run("twelve hour clock", func(t *testing.T) {
		c, err := ParseScheduleRequest(ctx, "2026-03-10 6:15 pm dinner", nil, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 10, 18, 15, 0, 0, time.UTC), c.ScheduledAt)
		assert.Equal(t, "dinner", c.Text)
	})

	t.Run("video caption override", func(t *testing.T) {
		c, err := ParseScheduleRequest(ctx, "2026-03-10 18:00 new caption", &botDomain.Content{
			Kind: botDomain.ContentVideo, Text: "old", MimeType: "video/mp4", Download: download,
		}, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, schedDomain.KindVideo, c.Kind)
		assert.Equal(t, "new caption", c.Caption)
		assert.Equal(t, []byte("data"), c.Media.Data)
	})

	t.Run("timezone applied", func(t *testing.T) {
		loc := time.FixedZone("UTC-5", -5*3600)
		c, err := ParseScheduleRequest(ctx, "2026-03-10 18:00 hi", nil, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), c.ScheduledAt.UTC())
	})

	t.Run("errors", func(t *testing.T) {
		cases := map[string]struct {
			args    string
			content *botDomain.Content
		}{
			"no text or media": {"2026-03-10 18:00", nil},
			"bad date":         {"10/03/2026 18:00 hi", nil},
			"bad time":         {"2026-03-10 25:99 hi", nil},
			"audio":            {"2026-03-10 18:00", &botDomain.Content{Kind: botDomain.ContentAudio, Download: download}},
			"empty quote":      {"2026-03-10 18:00", &botDomain.Content{Kind: botDomain.ContentText}},
		}
		for name, c := range cases {
			_, err := ParseScheduleRequest(ctx, c.args, c.content, time.UTC)
			assert.Error(t, err, name)
		}
	})

	t.Run("download failure", func(t *testing.T) {
		_, err := ParseScheduleRequest(ctx, "2026-03-10 18:00", &botDomain.Content{
			Kind: botDomain.ContentImage,
			Download: func(context.Context) ([]byte, error) {
				return nil, errors.New("expired")
			},
		}, time.UTC)
		assert.ErrorContains(t, err, "expired")
	})
}

