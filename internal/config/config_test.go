package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultLegacyDir, cfg.Legacy.Dir)
	assert.Equal(t, 2*time.Second, cfg.Sync.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Sync.PushTimeout)
	assert.Equal(t, "0 3 * * *", cfg.Export.Schedule)
	assert.False(t, cfg.Export.ScheduleEnabled)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 720*time.Hour, cfg.Session.Lifetime)
	assert.True(t, cfg.Session.SecureCookies)
	assert.Equal(t, time.Second, cfg.Lookup.Interval)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SYNC_DEBOUNCE", "500ms")
	t.Setenv("EXPORT_SCHEDULE_ENABLED", "true")
	t.Setenv("SESSION_SECURE_COOKIES", "false")
	t.Setenv("LEGACY_DIR", "/data/legacy")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.True(t, cfg.Export.ScheduleEnabled)
	assert.False(t, cfg.Session.SecureCookies)
	assert.Equal(t, "/data/legacy", cfg.Legacy.Dir)
}
