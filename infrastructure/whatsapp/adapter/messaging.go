package adapter

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// SendMessage sends a text reply, quoting quoteMessageID when set.
func (wa *WhatsAppAdapter) SendMessage(ctx context.Context, chatID, text, quoteMessageID string) error {
	if wa.client == nil {
		return fmt.Errorf("no client")
	}

	jid, err := parseJID(chatID)
	if err != nil {
		return fmt.Errorf("invalid JID: %w", err)
	}

	if _, err := wa.client.SendMessage(ctx, jid, buildReply(jid, text, quoteMessageID)); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid, err)
	}
	logrus.Debugf("[WHATSAPP] Reply sent to %s", jid)
	return nil
}

func buildReply(jid types.JID, text, quoteMessageID string) *waE2E.Message {
	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
		},
	}

	if quoteMessageID != "" {
		msg.ExtendedTextMessage.ContextInfo = &waE2E.ContextInfo{
			StanzaID:      proto.String(quoteMessageID),
			Participant:   proto.String(jid.String()),
			QuotedMessage: &waE2E.Message{Conversation: proto.String("")},
		}
	}
	return msg
}
