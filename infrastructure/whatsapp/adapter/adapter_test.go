package adapter

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	schedDomain "github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID("+628111")
	require.NoError(t, err)
	assert.Equal(t, "628111@s.whatsapp.net", jid.String())

	jid, err = parseJID("12345@g.us")
	require.NoError(t, err)
	assert.Equal(t, types.GroupServer, jid.Server)
}

func TestBuildReply_QuotesMessage(t *testing.T) {
	jid := types.NewJID("628111", types.DefaultUserServer)

	msg := buildReply(jid, "hi", "ABC")
	assert.Equal(t, "hi", msg.GetExtendedTextMessage().GetText())
	assert.Equal(t, "ABC", msg.GetExtendedTextMessage().GetContextInfo().GetStanzaID())

	plain := buildReply(jid, "hi", "")
	assert.Nil(t, plain.GetExtendedTextMessage().GetContextInfo())
}

func TestBuildTextStatus_AppliesStyle(t *testing.T) {
	msg := buildTextStatus("Good morning", StatusStyle{BackgroundARGB: 0xFF075E54, TextARGB: 0xFFFFFFFF, Font: 2})

	ext := msg.GetExtendedTextMessage()
	assert.Equal(t, "Good morning", ext.GetText())
	assert.Equal(t, uint32(0xFF075E54), ext.GetBackgroundArgb())
	assert.Equal(t, uint32(0xFFFFFFFF), ext.GetTextArgb())
	assert.Equal(t, waE2E.ExtendedTextMessage_FontType(2), ext.GetFont())
}

func TestBuildImageStatus_AddsThumbnail(t *testing.T) {
	data := pngBytes(t, 300, 150)
	uploaded := whatsmeow.UploadResponse{URL: "https://mmg/x", DirectPath: "/x", FileLength: uint64(len(data))}

	msg := buildImageStatus(data, uploaded, "Party!")

	img := msg.GetImageMessage()
	require.NotNil(t, img)
	assert.Equal(t, "Party!", img.GetCaption())
	assert.Equal(t, "image/png", img.GetMimetype())
	assert.Equal(t, uint32(300), img.GetWidth())
	assert.Equal(t, uint32(150), img.GetHeight())
	assert.NotEmpty(t, img.GetJPEGThumbnail())
	assert.Equal(t, "/x", img.GetDirectPath())
}

func TestBuildVideoStatus_DefaultsMimeType(t *testing.T) {
	msg := buildVideoStatus([]byte{0x00, 0x01, 0x02}, whatsmeow.UploadResponse{URL: "u"}, "")

	video := msg.GetVideoMessage()
	require.NotNil(t, video)
	assert.Equal(t, "video/mp4", video.GetMimetype())
	assert.Nil(t, video.Caption)
}

func TestSendStatus_FailsWhenDisconnected(t *testing.T) {
	wa := NewAdapter(Options{}, nil)
	err := wa.SendStatus(context.Background(), schedDomain.TextPayload{Text: "x"})
	assert.ErrorContains(t, err, "not connected")
}

func TestConvertMessage_QuotedImage(t *testing.T) {
	wa := NewAdapter(Options{MaxDownloadSize: 10}, nil)
	evt := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:      types.NewJID("628111", types.DefaultUserServer),
				Sender:    types.NewJID("99887766", types.HiddenUserServer),
				SenderAlt: types.NewJID("628111", types.DefaultUserServer),
			},
			ID:        "MSG1",
			PushName:  "Owner",
			Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		Message: &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(".sst 2026-03-02 09:00"),
				ContextInfo: &waE2E.ContextInfo{
					StanzaID: proto.String("Q1"),
					QuotedMessage: &waE2E.Message{
						ImageMessage: &waE2E.ImageMessage{
							Caption:    proto.String("Sunrise"),
							Mimetype:   proto.String("image/jpeg"),
							FileLength: proto.Uint64(2048),
						},
					},
				},
			},
		},
	}

	msg := wa.convertMessage(evt)

	assert.Equal(t, "MSG1", msg.ID)
	assert.Equal(t, "628111@s.whatsapp.net", msg.ChatID)
	assert.Equal(t, "628111@s.whatsapp.net", msg.SenderID)
	assert.Equal(t, ".sst 2026-03-02 09:00", msg.Text)
	assert.Nil(t, msg.Attached)
	require.NotNil(t, msg.Quoted)
	assert.Equal(t, botDomain.ContentImage, msg.Quoted.Kind)
	assert.Equal(t, "Sunrise", msg.Quoted.Text)
	assert.True(t, msg.Quoted.HasMedia())

	_, err := msg.Quoted.Download(context.Background())
	var validation pkgError.ValidationError
	assert.ErrorAs(t, err, &validation, "over the size limit")
}

func TestConvertMessage_AttachedVideoWithCaption(t *testing.T) {
	wa := NewAdapter(Options{}, nil)
	evt := &events.Message{
		Info: types.MessageInfo{
			MessageSource: types.MessageSource{
				Chat:   types.NewJID("628111", types.DefaultUserServer),
				Sender: types.NewJID("628111", types.DefaultUserServer),
			},
		},
		Message: &waE2E.Message{
			VideoMessage: &waE2E.VideoMessage{
				Caption:  proto.String(".sst 2026-03-02 09:00 clip"),
				Mimetype: proto.String("video/mp4"),
			},
		},
	}

	msg := wa.convertMessage(evt)

	assert.Equal(t, ".sst 2026-03-02 09:00 clip", msg.Text)
	require.NotNil(t, msg.Attached)
	assert.Equal(t, botDomain.ContentVideo, msg.Attached.Kind)
	assert.Nil(t, msg.Quoted)
}

func TestConvertMessage_QuotedConversation(t *testing.T) {
	wa := NewAdapter(Options{}, nil)
	evt := &events.Message{
		Message: &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(".sst 2026-03-02 09:00"),
				ContextInfo: &waE2E.ContextInfo{
					QuotedMessage: &waE2E.Message{Conversation: proto.String("hello world")},
				},
			},
		},
	}

	msg := wa.convertMessage(evt)

	require.NotNil(t, msg.Quoted)
	assert.Equal(t, botDomain.ContentText, msg.Quoted.Kind)
	assert.Equal(t, "hello world", msg.Quoted.Text)
	assert.False(t, msg.Quoted.HasMedia())
}

func TestHandleEvent_IgnoresStatusBroadcast(t *testing.T) {
	wa := NewAdapter(Options{}, nil)
	var got []botDomain.Message
	wa.OnMessage(func(m botDomain.Message) { got = append(got, m) })

	wa.handleEvent(&events.Message{
		Info:    types.MessageInfo{MessageSource: types.MessageSource{Chat: types.StatusBroadcastJID}},
		Message: &waE2E.Message{Conversation: proto.String("story")},
	})
	wa.handleEvent(&events.Message{
		Info:    types.MessageInfo{MessageSource: types.MessageSource{Chat: types.NewJID("1", types.DefaultUserServer)}},
		Message: &waE2E.Message{Conversation: proto.String(".ping")},
	})

	require.Len(t, got, 1)
	assert.Equal(t, ".ping", got[0].Text)
}
