package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "")
	t.Setenv("BOT_OWNERS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, ".", cfg.Bot.Prefix)
	assert.Empty(t, cfg.Bot.Owners)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Same(t, cfg, Global)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "Asia/Jakarta")
	t.Setenv("SCHEDULER_INTERVAL", "30s")
	t.Setenv("BOT_OWNERS", " 628111@s.whatsapp.net, ,628222@s.whatsapp.net")
	t.Setenv("BOT_PREFIX", "!")
	t.Setenv("WHATSAPP_STATUS_BACKGROUND_ARGB", "0xFF112233")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Scheduler.Interval)
	assert.Equal(t, "Asia/Jakarta", cfg.Scheduler.Location().String())
	assert.Equal(t, []string{"628111@s.whatsapp.net", "628222@s.whatsapp.net"}, cfg.Bot.Owners)
	assert.Equal(t, "!", cfg.Bot.Prefix)
	assert.Equal(t, uint32(0xFF112233), cfg.Whatsapp.StatusBackgroundARGB)
}

func TestLoadConfig_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus_Mons")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RejectsSubSecondInterval(t *testing.T) {
	t.Setenv("SCHEDULER_INTERVAL", "10ms")

	_, err := LoadConfig()
	assert.Error(t, err)
}
