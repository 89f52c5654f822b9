package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-wabot/botengine"
	botDomain "github.com/AzielCF/az-wabot/botengine/domain"
	"github.com/AzielCF/az-wabot/botengine/tools/general"
	"github.com/AzielCF/az-wabot/botengine/tools/status"
	coreDB "github.com/AzielCF/az-wabot/core/database"
	"github.com/AzielCF/az-wabot/infrastructure/natsbus"
	"github.com/AzielCF/az-wabot/infrastructure/valkey"
	whatsappadapter "github.com/AzielCF/az-wabot/infrastructure/whatsapp/adapter"
	"github.com/AzielCF/az-wabot/pkg/chatmedia"
	"github.com/AzielCF/az-wabot/pkg/msgworker"
	"github.com/AzielCF/az-wabot/pkg/utils"
	"github.com/AzielCF/az-wabot/schedule/application"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/AzielCF/az-wabot/schedule/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

var (
	// Infrastructure
	historyDB    *gorm.DB
	valkeyClient *valkey.Client
	events       domain.EventPublisher = natsbus.NoopPublisher{}
	waAdapter    *whatsappadapter.WhatsAppAdapter
	workerPool   *msgworker.CommandWorkerPool

	// Schedule
	scheduleStore   *repository.JSONStore
	scheduleService *application.ScheduleService
	taskScheduler   *application.TaskScheduler

	// Bot
	botEngine *botengine.Engine
)

// initApp wires every component. Nothing is connected to WhatsApp yet.
func initApp(ctx context.Context) error {
	if err := utils.CreateFolder(cfg.Paths.BaseDir, cfg.Paths.Statics, cfg.Paths.Media); err != nil {
		return fmt.Errorf("failed to prepare folders: %w", err)
	}

	// 1. Audit history (optional)
	var history domain.IHistoryRepository
	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Warn("[DATABASE] History disabled")
	} else {
		repo := repository.NewHistoryGormRepository(db)
		if err := repo.Init(ctx); err != nil {
			logrus.WithError(err).Warn("[DATABASE] History migration failed, history disabled")
			_ = coreDB.Close(db)
		} else {
			historyDB = db
			history = repo
		}
	}

	// 2. Lifecycle events (optional)
	if cfg.NATS.URL != "" {
		publisher, err := natsbus.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			logrus.WithError(err).Warn("[NATS] Events disabled")
		} else {
			events = publisher
		}
	}

	recorder := application.NewRecorder(history, events)

	// 3. Store
	fs := afero.NewOsFs()
	loc := cfg.Scheduler.Location()
	mediaStore := chatmedia.NewStore(fs, cfg.Paths.Media,
		chatmedia.WithSizeLimits(cfg.Whatsapp.MaxImageSize, cfg.Whatsapp.MaxVideoSize))

	scheduleStore = repository.NewJSONStore(fs, cfg.Paths.ScheduleFile, mediaStore, loc,
		repository.WithDropHook(func(post domain.ScheduledPost) {
			recorder.Record(ctx, domain.NewHistoryEntry(post, domain.EventDropped, time.Now()))
		}),
	)
	if err := scheduleStore.Load(); err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	logrus.Infof("[STORE] %d status post(s) pending in %s (%s)", scheduleStore.Len(), cfg.Paths.ScheduleFile, loc)

	// 4. Shared store lock (optional)
	var sharedLock application.SharedLock
	if cfg.Valkey.Enabled {
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("valkey is enabled but unreachable: %w", err)
		}
		valkeyClient = client
		// Unique per process so two bots on one host never release each other's lease.
		owner := utils.GetPersistentServerID(fs, "", cfg.Paths.BaseDir) + "/" + uuid.NewString()[:8]
		locker := valkey.NewLocker(client, owner)
		sharedLock = application.SharedLock{Acquire: locker.Acquire, Release: locker.Release, TTL: cfg.Scheduler.LockTTL}
		logrus.Infof("[VALKEY] Schedule file shared through a lock at %s", cfg.Valkey.Address)
	}

	scheduleService = application.NewScheduleService(scheduleStore, recorder).WithSharedLock(sharedLock)

	// 5. WhatsApp
	waAdapter = whatsappadapter.NewAdapter(whatsappadapter.Options{
		DBURI:           cfg.Database.URI,
		KeysDBURI:       cfg.Database.KeysURI,
		LogLevel:        cfg.Whatsapp.LogLevel,
		OS:              cfg.App.OS,
		Version:         cfg.App.Version,
		AutoReconnect:   cfg.Whatsapp.AutoReconnect,
		MaxDownloadSize: cfg.Whatsapp.MaxDownloadSize,
		StatusStyle: whatsappadapter.StatusStyle{
			BackgroundARGB: cfg.Whatsapp.StatusBackgroundARGB,
			TextARGB:       cfg.Whatsapp.StatusTextARGB,
			Font:           cfg.Whatsapp.StatusFont,
		},
	}, mediaStore)

	// 6. Scheduler
	opts := application.Options{
		Interval:     cfg.Scheduler.Interval,
		StartupDelay: cfg.Scheduler.StartupDelay,
		SendTimeout:  cfg.Scheduler.SendTimeout,
		MinSendGap:   cfg.Scheduler.MinSendGap,
		LockTTL:      cfg.Scheduler.LockTTL,
	}
	if sharedLock.Acquire != nil {
		opts.AcquireLock = sharedLock.Acquire
		opts.ReleaseLock = sharedLock.Release
	}
	taskScheduler = application.NewTaskScheduler(scheduleStore, waAdapter, recorder, opts)

	// 7. Commands
	botEngine = botengine.NewEngine(cfg.Bot.Prefix, cfg.Bot.Owners)
	botEngine.RegisterTransport(waAdapter)
	botEngine.MustRegister(general.NewGeneralTools(botEngine, cfg.App.Version).Commands()...)
	botEngine.MustRegister(status.NewStatusTools(scheduleService, cfg.Bot.HistoryLimit).Commands()...)
	if len(cfg.Bot.Owners) == 0 {
		logrus.Warn("[BOT] BOT_OWNERS is empty, anyone who can message this account can schedule statuses")
	}

	workerPool = msgworker.NewCommandWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	waAdapter.OnMessage(dispatchMessage)

	return nil
}

// dispatchMessage queues command messages on the chat's worker so commands
// of one chat run in order.
func dispatchMessage(msg botDomain.Message) {
	if _, _, ok := botEngine.Parse(msg.Text); !ok {
		return
	}

	accepted := workerPool.TryDispatch(msgworker.CommandJob{
		ChatJID: msg.ChatID,
		Handler: func(ctx context.Context) error {
			_, err := botEngine.Process(ctx, msg)
			return err
		},
	})
	if !accepted {
		logrus.Warnf("[BOT] Command from %s dropped, worker queue is full", msg.SenderID)
	}
}

// stopApp releases every resource opened by initApp.
func stopApp() {
	logrus.Info("[APP] Stopping application...")

	if workerPool != nil {
		workerPool.Stop()
	}
	if waAdapter != nil {
		waAdapter.Stop()
	}
	if scheduleStore != nil {
		if err := scheduleStore.Save(); err != nil {
			logrus.WithError(err).Error("[STORE] Final save failed")
		}
	}
	if events != nil {
		events.Close()
	}
	if valkeyClient != nil {
		valkeyClient.Close()
	}
	if err := coreDB.Close(historyDB); err != nil {
		logrus.WithError(err).Warn("[DATABASE] Close failed")
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
