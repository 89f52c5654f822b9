package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Whatsapp   WhatsappConfig
	Scheduler  SchedulerConfig
	Bot        BotConfig
	Valkey     ValkeyConfig
	NATS       NATSConfig
	WorkerPool WorkerPoolConfig
}

type AppConfig struct {
	Version     string
	Port        string
	Debug       bool
	Environment string
	OS          string
	BasicAuth   []string
	BasePath    string
	RestEnabled bool
}

type PathsConfig struct {
	BaseDir      string
	Statics      string
	Media        string
	ScheduleFile string
}

type DatabaseConfig struct {
	Driver   string // audit history: sqlite or postgres
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
	// whatsmeow session store
	URI     string
	KeysURI string
}

type WhatsappConfig struct {
	LogLevel        string
	MaxImageSize    int64
	MaxVideoSize    int64
	MaxDownloadSize int64
	AutoReconnect   bool
	// Text status styling
	StatusBackgroundARGB uint32
	StatusTextARGB       uint32
	StatusFont           int32
}

type SchedulerConfig struct {
	Timezone     string
	Interval     time.Duration
	StartupDelay time.Duration
	SendTimeout  time.Duration
	MinSendGap   time.Duration
	LockTTL      time.Duration
}

type BotConfig struct {
	Prefix       string
	Owners       []string
	HistoryLimit int
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// Global provides access to the loaded configuration globally
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	} else if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		debug = true
	}

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:     "v1.0.0",
		Port:        getEnv("APP_PORT", "3000"),
		Debug:       debug,
		Environment: getEnv("APP_ENV", "development"),
		OS:          getEnv("APP_OS", "AzWabot"),
		BasicAuth:   basicAuth,
		BasePath:    getEnv("APP_BASE_PATH", ""),
		RestEnabled: getEnvBool("APP_REST_ENABLED", false),
	}

	statics := getEnv("PATH_STATICS", "statics")
	pathsCfg := PathsConfig{
		BaseDir:      baseDir,
		Statics:      statics,
		Media:        getEnv("PATH_STATUS_MEDIA", filepath.Join(statics, "status-media")),
		ScheduleFile: getEnv("PATH_STATUS_SCHEDULES", filepath.Join(baseDir, "status_schedules.json")),
	}

	dbCfg := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "sqlite"),
		Name:     getEnv("DB_NAME", filepath.Join(baseDir, "app.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		URI:      getEnv("DB_URI", fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(baseDir, "whatsapp.db"))),
		KeysURI:  getEnv("DB_KEYS_URI", ""),
	}

	waCfg := WhatsappConfig{
		LogLevel:             getEnv("WHATSAPP_LOG_LEVEL", "ERROR"),
		MaxImageSize:         getEnvInt64("WHATSAPP_MAX_IMAGE_SIZE", 20000000),
		MaxVideoSize:         getEnvInt64("WHATSAPP_MAX_VIDEO_SIZE", 50000000),
		MaxDownloadSize:      getEnvInt64("WHATSAPP_MAX_DOWNLOAD_SIZE", 50000000),
		AutoReconnect:        getEnvBool("WHATSAPP_AUTO_RECONNECT", true),
		StatusBackgroundARGB: getEnvUint32("WHATSAPP_STATUS_BACKGROUND_ARGB", 0xFF075E54),
		StatusTextARGB:       getEnvUint32("WHATSAPP_STATUS_TEXT_ARGB", 0xFFFFFFFF),
		StatusFont:           int32(getEnvInt("WHATSAPP_STATUS_FONT", 0)),
	}

	schedCfg := SchedulerConfig{
		Timezone:     getEnv("SCHEDULER_TIMEZONE", "UTC"),
		Interval:     getEnvDuration("SCHEDULER_INTERVAL", time.Minute),
		StartupDelay: getEnvDuration("SCHEDULER_STARTUP_DELAY", 5*time.Second),
		SendTimeout:  getEnvDuration("SCHEDULER_SEND_TIMEOUT", 2*time.Minute),
		MinSendGap:   getEnvDuration("SCHEDULER_MIN_SEND_GAP", 500*time.Millisecond),
		LockTTL:      getEnvDuration("SCHEDULER_LOCK_TTL", 55*time.Second),
	}

	var owners []string
	if v := os.Getenv("BOT_OWNERS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				owners = append(owners, o)
			}
		}
	}

	botCfg := BotConfig{
		Prefix:       getEnv("BOT_PREFIX", "."),
		Owners:       owners,
		HistoryLimit: getEnvInt("BOT_HISTORY_LIMIT", 10),
	}

	cfg := &Config{
		App:       appCfg,
		Paths:     pathsCfg,
		Database:  dbCfg,
		Whatsapp:  waCfg,
		Scheduler: schedCfg,
		Bot:       botCfg,
		Valkey: ValkeyConfig{
			Enabled:   getEnvBool("VALKEY_ENABLED", false),
			Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			Password:  getEnv("VALKEY_PASSWORD", ""),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azwabot:"),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "azwabot.status"),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("MESSAGE_WORKER_POOL_SIZE", 8),
			QueueSize: getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 250),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Global = cfg
	return cfg, nil
}

// Validate checks the settings the scheduler cannot run without.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Scheduler,
		validation.Field(&c.Scheduler.Timezone, validation.Required, validation.By(validTimezone)),
		validation.Field(&c.Scheduler.Interval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Scheduler.SendTimeout, validation.Required),
	); err != nil {
		return fmt.Errorf("invalid scheduler config: %w", err)
	}

	if err := validation.ValidateStruct(&c.Paths,
		validation.Field(&c.Paths.Media, validation.Required),
		validation.Field(&c.Paths.ScheduleFile, validation.Required),
	); err != nil {
		return fmt.Errorf("invalid paths config: %w", err)
	}

	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Driver, validation.In("sqlite", "postgres")),
	); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}

	return validation.ValidateStruct(&c.Bot,
		validation.Field(&c.Bot.Prefix, validation.Required, validation.Length(1, 3)),
	)
}

// Location returns the configured scheduler timezone, UTC when unknown.
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validTimezone(value interface{}) error {
	name, _ := value.(string)
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q", name)
	}
	return nil
}
