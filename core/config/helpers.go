package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns a map of the settings exposed by the health endpoint.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":                Global.App.Version,
		"app_debug":                  Global.App.Debug,
		"bot_prefix":                 Global.Bot.Prefix,
		"bot_owner_count":            len(Global.Bot.Owners),
		"scheduler_timezone":         Global.Scheduler.Timezone,
		"scheduler_interval":         Global.Scheduler.Interval.String(),
		"whatsapp_max_image_size":    Global.Whatsapp.MaxImageSize,
		"whatsapp_max_video_size":    Global.Whatsapp.MaxVideoSize,
		"whatsapp_max_download_size": Global.Whatsapp.MaxDownloadSize,
		"valkey_enabled":             Global.Valkey.Enabled,
		"nats_enabled":               Global.NATS.URL != "",
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvUint32 accepts decimal or 0x-prefixed hex, handy for ARGB colors.
func getEnvUint32(key string, fallback uint32) uint32 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 0, 32); err == nil {
			return uint32(n)
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
