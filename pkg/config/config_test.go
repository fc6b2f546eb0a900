package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, FallbackWidened, cfg.Scheduler.FallbackMode)
	assert.Equal(t, "L", cfg.Scheduler.LabSuffix)
	assert.False(t, cfg.Scheduler.LabByType)
	assert.False(t, cfg.Scheduler.EnforceAvailability)
	assert.False(t, cfg.Scheduler.HonorFixedSlots)
	assert.Equal(t, 10*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, 2, cfg.Notifications.Workers)
}

func TestFallbackModeOverride(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCHEDULER_FALLBACK_MODE", " OVERRIDE ")
	cfg := fromViper(v)
	assert.Equal(t, FallbackOverride, cfg.Scheduler.FallbackMode)

	v.Set("SCHEDULER_FALLBACK_MODE", "bogus")
	cfg = fromViper(v)
	assert.Equal(t, FallbackWidened, cfg.Scheduler.FallbackMode)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bad", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
	assert.Nil(t, splitAndTrim(""))
}
