package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCompanionReg"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Start opens the session store, connects and, on first run, prints the
// login QR code.
func (wa *WhatsAppAdapter) Start(ctx context.Context) error {
	if wa.client != nil {
		if !wa.client.IsConnected() {
			return wa.client.Connect()
		}
		return nil
	}

	level := wa.opts.LogLevel
	if level == "" {
		level = "ERROR"
	}

	db, err := openSessionStore(ctx, wa.opts.DBURI, waLog.Stdout("Database", level, true))
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	wa.db = db

	if wa.opts.KeysDBURI != "" {
		keysDB, err := openSessionStore(ctx, wa.opts.KeysDBURI, waLog.Stdout("KeysDB", level, true))
		if err != nil {
			return fmt.Errorf("failed to open keys store: %w", err)
		}
		wa.keysDB = keysDB
	}

	device, err := db.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	if wa.keysDB != nil && device.ID != nil {
		syncKeysDevice(ctx, db, wa.keysDB)
		inner := sqlstore.NewSQLStore(wa.keysDB, *device.ID)
		device.Identities = inner
		device.Sessions = inner
		device.PreKeys = inner
		device.SenderKeys = inner
		device.MsgSecrets = inner
		device.PrivacyTokens = inner
	}

	wa.configureDeviceProps()

	wa.client = whatsmeow.NewClient(device, waLog.Stdout("Client", level, true))
	wa.client.EnableAutoReconnect = wa.opts.AutoReconnect
	wa.client.AutoTrustIdentity = true
	wa.handlerID = wa.client.AddEventHandler(wa.handleEvent)

	if wa.client.Store.ID != nil {
		if err := wa.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		logrus.Infof("[WHATSAPP] Connected as %s", wa.client.Store.ID.ToNonAD())
		return nil
	}

	return wa.login(ctx)
}

func (wa *WhatsAppAdapter) login(ctx context.Context) error {
	qrChan, err := wa.client.GetQRChannel(ctx)
	if err != nil {
		if errors.Is(err, whatsmeow.ErrQRStoreContainsID) {
			return wa.client.Connect()
		}
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := wa.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	out := wa.opts.QRWriter
	if out == nil {
		out = os.Stdout
	}

	logrus.Info("[WHATSAPP] Scan the QR code below with WhatsApp > Linked devices")
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, out)
		case "success":
			logrus.Info("[WHATSAPP] Login successful")
			return nil
		case "timeout":
			return fmt.Errorf("QR login timed out")
		default:
			if evt.Error != nil {
				return fmt.Errorf("QR login failed: %w", evt.Error)
			}
			logrus.Debugf("[WHATSAPP] QR event %s", evt.Event)
		}
	}
	return nil
}

// IsConnected reports whether the socket is up and the session is logged in.
func (wa *WhatsAppAdapter) IsConnected() bool {
	return wa.client != nil && wa.client.IsConnected() && wa.client.IsLoggedIn()
}

// Stop removes the event handler, disconnects and closes the session stores.
func (wa *WhatsAppAdapter) Stop() {
	if wa.client != nil {
		if wa.handlerID != 0 {
			wa.client.RemoveEventHandler(wa.handlerID)
			wa.handlerID = 0
		}
		wa.client.Disconnect()
	}
	if wa.keysDB != nil && wa.keysDB != wa.db {
		if err := wa.keysDB.Close(); err != nil {
			logrus.WithError(err).Warn("[WHATSAPP] Failed to close keys store")
		}
	}
	if wa.db != nil {
		if err := wa.db.Close(); err != nil {
			logrus.WithError(err).Warn("[WHATSAPP] Failed to close session store")
		}
	}
	logrus.Info("[WHATSAPP] Disconnected")
}

func openSessionStore(ctx context.Context, uri string, dbLog waLog.Logger) (*sqlstore.Container, error) {
	if strings.HasPrefix(uri, "postgres:") {
		return sqlstore.New(ctx, "postgres", uri, dbLog)
	}
	return sqlstore.New(ctx, "sqlite3", uri, dbLog)
}

func (wa *WhatsAppAdapter) configureDeviceProps() {
	osName := strings.TrimSpace(fmt.Sprintf("%s %s", wa.opts.OS, wa.opts.Version))
	if osName == "" {
		osName = "AzWabot"
	}
	platform := waCompanionReg.DeviceProps_CHROME
	store.DeviceProps.PlatformType = &platform
	store.DeviceProps.Os = &osName
}

// syncKeysDevice keeps exactly the main device in the keys store.
func syncKeysDevice(ctx context.Context, db, keysDB *sqlstore.Container) {
	dev, err := db.GetFirstDevice(ctx)
	if err != nil || dev == nil || dev.ID == nil {
		return
	}
	devs, err := keysDB.GetAllDevices(ctx)
	if err != nil {
		logrus.WithError(err).Warn("[WHATSAPP] Failed to list key store devices")
		return
	}
	found := false
	for _, d := range devs {
		if d.ID != nil && *d.ID == *dev.ID {
			found = true
			continue
		}
		if err := keysDB.DeleteDevice(ctx, d); err != nil {
			logrus.WithError(err).Warn("[WHATSAPP] Failed to delete stale key store device")
		}
	}
	if !found {
		if err := keysDB.PutDevice(ctx, dev); err != nil {
			logrus.WithError(err).Warn("[WHATSAPP] Failed to copy device into key store")
		}
	}
}
