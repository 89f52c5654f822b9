package adapter

import (
	"context"
	"fmt"

	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

func (wa *WhatsAppAdapter) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		logrus.Info("[WHATSAPP] Connected to WhatsApp")
	case *events.Disconnected:
		logrus.Warn("[WHATSAPP] Disconnected from WhatsApp")
	case *events.LoggedOut:
		logrus.Errorf("[WHATSAPP] Logged out (reason %v), remove the session store and scan the QR again", v.Reason)
	case *events.StreamReplaced:
		logrus.Warn("[WHATSAPP] Session replaced by another connection")
	case *events.Message:
		if v.Info.Chat == types.StatusBroadcastJID || v.Info.IsIncomingBroadcast() {
			return
		}
		handler := wa.messageHandler()
		if handler == nil {
			return
		}
		handler(wa.convertMessage(v))
	}
}

// convertMessage maps a whatsmeow message event to the bot message model.
// Media bytes are not fetched until a command asks for them.
func (wa *WhatsAppAdapter) convertMessage(evt *events.Message) botDomain.Message {
	msg := evt.Message
	if inner := msg.GetEphemeralMessage().GetMessage(); inner != nil {
		msg = inner
	}

	out := botDomain.Message{
		ID:        evt.Info.ID,
		ChatID:    evt.Info.Chat.ToNonAD().String(),
		SenderID:  wa.senderID(evt.Info.Sender, evt.Info.SenderAlt),
		PushName:  evt.Info.PushName,
		IsGroup:   evt.Info.IsGroup,
		FromMe:    evt.Info.IsFromMe,
		Text:      extractText(msg),
		Timestamp: evt.Info.Timestamp,
	}

	if attached := wa.contentOf(msg); attached != nil && attached.Kind != botDomain.ContentText {
		out.Attached = attached
	}
	if ctxInfo := contextInfoOf(msg); ctxInfo != nil && ctxInfo.GetQuotedMessage() != nil {
		out.Quoted = wa.contentOf(ctxInfo.GetQuotedMessage())
	}
	return out
}

func extractText(msg *waE2E.Message) string {
	switch {
	case msg.GetConversation() != "":
		return msg.GetConversation()
	case msg.GetExtendedTextMessage() != nil:
		return msg.GetExtendedTextMessage().GetText()
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetCaption()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetCaption()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetCaption()
	}
	return ""
}

func contextInfoOf(msg *waE2E.Message) *waE2E.ContextInfo {
	switch {
	case msg.GetExtendedTextMessage() != nil:
		return msg.GetExtendedTextMessage().GetContextInfo()
	case msg.GetImageMessage() != nil:
		return msg.GetImageMessage().GetContextInfo()
	case msg.GetVideoMessage() != nil:
		return msg.GetVideoMessage().GetContextInfo()
	case msg.GetDocumentMessage() != nil:
		return msg.GetDocumentMessage().GetContextInfo()
	}
	return nil
}

// contentOf describes the body of msg, or nil when it has nothing usable.
func (wa *WhatsAppAdapter) contentOf(msg *waE2E.Message) *botDomain.Content {
	if msg == nil {
		return nil
	}
	if inner := msg.GetViewOnceMessage().GetMessage(); inner != nil {
		msg = inner
	}

	switch {
	case msg.GetImageMessage() != nil:
		img := msg.GetImageMessage()
		return wa.mediaContent(botDomain.ContentImage, img, img.GetCaption(), img.GetMimetype(), img.GetFileLength())
	case msg.GetVideoMessage() != nil:
		video := msg.GetVideoMessage()
		return wa.mediaContent(botDomain.ContentVideo, video, video.GetCaption(), video.GetMimetype(), video.GetFileLength())
	case msg.GetAudioMessage() != nil:
		audio := msg.GetAudioMessage()
		return wa.mediaContent(botDomain.ContentAudio, audio, "", audio.GetMimetype(), audio.GetFileLength())
	case msg.GetDocumentMessage() != nil:
		doc := msg.GetDocumentMessage()
		return wa.mediaContent(botDomain.ContentDocument, doc, doc.GetCaption(), doc.GetMimetype(), doc.GetFileLength())
	case msg.GetStickerMessage() != nil:
		sticker := msg.GetStickerMessage()
		return wa.mediaContent(botDomain.ContentSticker, sticker, "", sticker.GetMimetype(), sticker.GetFileLength())
	}

	if text := extractText(msg); text != "" {
		return &botDomain.Content{Kind: botDomain.ContentText, Text: text}
	}
	return nil
}

func (wa *WhatsAppAdapter) mediaContent(kind botDomain.ContentKind, media whatsmeow.DownloadableMessage, caption, mimeType string, size uint64) *botDomain.Content {
	return &botDomain.Content{
		Kind:     kind,
		Text:     caption,
		MimeType: mimeType,
		Size:     size,
		Download: func(ctx context.Context) ([]byte, error) {
			return wa.download(ctx, media, size)
		},
	}
}

func (wa *WhatsAppAdapter) download(ctx context.Context, media whatsmeow.DownloadableMessage, size uint64) ([]byte, error) {
	if limit := wa.opts.MaxDownloadSize; limit > 0 && size > uint64(limit) {
		return nil, pkgError.ValidationError(fmt.Sprintf("media is %s, the limit is %s", humanize.Bytes(size), humanize.Bytes(uint64(limit))))
	}
	if wa.client == nil {
		return nil, fmt.Errorf("no client")
	}
	data, err := wa.client.Download(ctx, media)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return data, nil
}
