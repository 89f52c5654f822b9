package adapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/AzielCF/az-wabot/pkg/chatmedia"
	schedDomain "github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// SendStatus publishes payload to the account's status feed.
func (wa *WhatsAppAdapter) SendStatus(ctx context.Context, payload schedDomain.Payload) error {
	if !wa.IsConnected() {
		return fmt.Errorf("whatsapp client not connected")
	}

	msg, err := wa.buildStatus(ctx, payload)
	if err != nil {
		return err
	}

	resp, err := wa.client.SendMessage(ctx, types.StatusBroadcastJID, msg)
	if err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}
	logrus.Debugf("[WHATSAPP] Status %s published (message %s)", payload.Kind(), resp.ID)
	return nil
}

func (wa *WhatsAppAdapter) buildStatus(ctx context.Context, payload schedDomain.Payload) (*waE2E.Message, error) {
	switch p := payload.(type) {
	case schedDomain.TextPayload:
		return buildTextStatus(p.Text, wa.opts.StatusStyle), nil
	case schedDomain.ImagePayload:
		data, err := wa.readMedia(p.MediaPath)
		if err != nil {
			return nil, err
		}
		uploaded, err := wa.client.Upload(ctx, data, whatsmeow.MediaImage)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		return buildImageStatus(data, uploaded, p.Caption), nil
	case schedDomain.VideoPayload:
		data, err := wa.readMedia(p.MediaPath)
		if err != nil {
			return nil, err
		}
		uploaded, err := wa.client.Upload(ctx, data, whatsmeow.MediaVideo)
		if err != nil {
			return nil, fmt.Errorf("failed to upload video: %w", err)
		}
		return buildVideoStatus(data, uploaded, p.Caption), nil
	}
	return nil, fmt.Errorf("unsupported status payload %T", payload)
}

func (wa *WhatsAppAdapter) readMedia(path string) ([]byte, error) {
	if wa.media == nil {
		return nil, fmt.Errorf("no media store configured")
	}
	data, err := wa.media.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read status media: %w", err)
	}
	return data, nil
}

func buildTextStatus(text string, style StatusStyle) *waE2E.Message {
	ext := &waE2E.ExtendedTextMessage{
		Text:           proto.String(text),
		BackgroundArgb: proto.Uint32(style.BackgroundARGB),
		TextArgb:       proto.Uint32(style.TextARGB),
		Font:           waE2E.ExtendedTextMessage_FontType(style.Font).Enum(),
	}
	return &waE2E.Message{ExtendedTextMessage: ext}
}

func buildImageStatus(data []byte, uploaded whatsmeow.UploadResponse, caption string) *waE2E.Message {
	img := &waE2E.ImageMessage{
		URL:           proto.String(uploaded.URL),
		DirectPath:    proto.String(uploaded.DirectPath),
		MediaKey:      uploaded.MediaKey,
		Mimetype:      proto.String(http.DetectContentType(data)),
		FileEncSHA256: uploaded.FileEncSHA256,
		FileSHA256:    uploaded.FileSHA256,
		FileLength:    proto.Uint64(uploaded.FileLength),
	}
	if caption != "" {
		img.Caption = proto.String(caption)
	}

	info, err := chatmedia.Thumbnail(data)
	if err != nil {
		logrus.WithError(err).Warn("[WHATSAPP] Could not build image thumbnail, sending without one")
	} else {
		img.JPEGThumbnail = info.Thumbnail
		img.Width = proto.Uint32(uint32(info.Width))
		img.Height = proto.Uint32(uint32(info.Height))
	}
	return &waE2E.Message{ImageMessage: img}
}

func buildVideoStatus(data []byte, uploaded whatsmeow.UploadResponse, caption string) *waE2E.Message {
	mimeType := http.DetectContentType(data)
	if mimeType == "application/octet-stream" {
		mimeType = "video/mp4"
	}
	video := &waE2E.VideoMessage{
		URL:           proto.String(uploaded.URL),
		DirectPath:    proto.String(uploaded.DirectPath),
		MediaKey:      uploaded.MediaKey,
		Mimetype:      proto.String(mimeType),
		FileEncSHA256: uploaded.FileEncSHA256,
		FileSHA256:    uploaded.FileSHA256,
		FileLength:    proto.Uint64(uploaded.FileLength),
	}
	if caption != "" {
		video.Caption = proto.String(caption)
	}
	return &waE2E.Message{VideoMessage: video}
}
