package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.ProposalTTL)
	assert.Equal(t, 500, cfg.Scheduler.MaxWindows)
	assert.Equal(t, "07:00", cfg.Scheduler.DayStart)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SCHEDULER_TIMEZONE", "Asia/Jakarta")
	t.Setenv("SCHEDULER_PROPOSAL_TTL", "10m")
	t.Setenv("ENABLE_CACHE", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", cfg.Scheduler.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.ProposalTTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Second, parseDuration("bogus", time.Second))
	assert.Equal(t, 2*time.Minute, parseDuration("2m", time.Second))
}

func TestSchedulerLocation(t *testing.T) {
	loc, err := SchedulerConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = SchedulerConfig{Timezone: "Not/AZone"}.Location()
	assert.Error(t, err)
}
