package adapter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
)

// StatusStyle is the look of text statuses.
type StatusStyle struct {
	BackgroundARGB uint32
	TextARGB       uint32
	Font           int32
}

// Options configures the WhatsApp adapter.
type Options struct {
	DBURI           string
	KeysDBURI       string
	LogLevel        string
	OS              string
	Version         string
	AutoReconnect   bool
	MaxDownloadSize int64
	StatusStyle     StatusStyle
	// QR codes are printed here on first login.
	QRWriter io.Writer
}

// MediaReader loads a stored status media file.
type MediaReader interface {
	Read(path string) ([]byte, error)
}

// WhatsAppAdapter wraps the whatsmeow client. It is the bot transport for
// command replies and the status sender for the scheduler.
type WhatsAppAdapter struct {
	opts  Options
	media MediaReader

	client    *whatsmeow.Client
	db        *sqlstore.Container
	keysDB    *sqlstore.Container
	handlerID uint32

	handlerMu sync.RWMutex
	onMessage func(botDomain.Message)
}

func NewAdapter(opts Options, media MediaReader) *WhatsAppAdapter {
	return &WhatsAppAdapter{opts: opts, media: media}
}

// ID returns the transport id.
func (wa *WhatsAppAdapter) ID() string {
	return "whatsapp"
}

// OnMessage registers the handler for incoming chat messages.
func (wa *WhatsAppAdapter) OnMessage(handler func(botDomain.Message)) {
	wa.handlerMu.Lock()
	defer wa.handlerMu.Unlock()
	wa.onMessage = handler
}

func (wa *WhatsAppAdapter) messageHandler() func(botDomain.Message) {
	wa.handlerMu.RLock()
	defer wa.handlerMu.RUnlock()
	return wa.onMessage
}

// parseJID accepts a full JID or a plain phone number.
func parseJID(chatID string) (types.JID, error) {
	if strings.Contains(chatID, "@") {
		return types.ParseJID(chatID)
	}
	return types.NewJID(strings.TrimPrefix(chatID, "+"), types.DefaultUserServer), nil
}

// Me returns the logged in account JID.
func (wa *WhatsAppAdapter) Me() (string, error) {
	if wa.client == nil || wa.client.Store == nil || wa.client.Store.ID == nil {
		return "", fmt.Errorf("no client or not logged in")
	}
	return wa.client.Store.ID.ToNonAD().String(), nil
}

// senderID prefers the phone number JID so owner checks match BOT_OWNERS
// even when the message arrives from a LID.
func (wa *WhatsAppAdapter) senderID(sender, senderAlt types.JID) string {
	if sender.Server == types.HiddenUserServer {
		if !senderAlt.IsEmpty() && senderAlt.Server == types.DefaultUserServer {
			return senderAlt.ToNonAD().String()
		}
		if wa.client != nil && wa.client.Store != nil && wa.client.Store.LIDs != nil {
			pn, err := wa.client.Store.LIDs.GetPNForLID(context.Background(), sender.ToNonAD())
			if err == nil && !pn.IsEmpty() {
				return pn.ToNonAD().String()
			}
			if err != nil {
				logrus.Debugf("[WHATSAPP] No phone number for %s: %v", sender, err)
			}
		}
	}
	return sender.ToNonAD().String()
}
