package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.ScanInterval)
	assert.Equal(t, 180*time.Second, cfg.BotTimeout)
	assert.Equal(t, 5*time.Minute, cfg.HeartbeatInterval)
	assert.Equal(t, "/tmp/moneysignal_stats.json", cfg.StatsPath)
	assert.Equal(t, 250, cfg.UniverseHardCap)
	assert.InDelta(t, 0.90, cfg.VolumeCoverage, 1e-9)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCAN_INTERVAL_SECONDS", "5")
	t.Setenv("BOT_TIMEOUT_SECONDS", "30")
	t.Setenv("STATUS_HEARTBEAT_INTERVAL_MIN", "2.5")
	t.Setenv("UNIVERSE_HARD_CAP", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.ScanInterval)
	assert.Equal(t, 30*time.Second, cfg.BotTimeout)
	assert.Equal(t, 150*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 50, cfg.UniverseHardCap)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ScanInterval:    20 * time.Second,
			BotTimeout:      3 * time.Minute,
			UniverseHardCap: 250,
		}
	}

	t.Run("accepts sane config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects non-positive scan interval", func(t *testing.T) {
		cfg := valid()
		cfg.ScanInterval = 0
		assert.ErrorContains(t, cfg.Validate(), "scan interval")
	})

	t.Run("rejects non-positive bot timeout", func(t *testing.T) {
		cfg := valid()
		cfg.BotTimeout = -time.Second
		assert.ErrorContains(t, cfg.Validate(), "bot timeout")
	})

	t.Run("rejects zero hard cap", func(t *testing.T) {
		cfg := valid()
		cfg.UniverseHardCap = 0
		assert.ErrorContains(t, cfg.Validate(), "universe hard cap must be positive",
			"a zero cap would clip every universe to empty")
	})

	t.Run("rejects negative hard cap", func(t *testing.T) {
		cfg := valid()
		cfg.UniverseHardCap = -1
		assert.ErrorContains(t, cfg.Validate(), "universe hard cap must be positive")
	})
}

func TestBotInterval(t *testing.T) {
	cfg := &Config{}

	t.Run("uses fallback when env unset", func(t *testing.T) {
		assert.Equal(t, time.Minute, cfg.BotInterval("premarket", time.Minute))
	})

	t.Run("reads per-bot env var", func(t *testing.T) {
		t.Setenv("PREMARKET_INTERVAL", "120")
		assert.Equal(t, 120*time.Second, cfg.BotInterval("premarket", time.Minute))
	})

	t.Run("clamps below five seconds", func(t *testing.T) {
		t.Setenv("PREMARKET_INTERVAL", "1")
		assert.Equal(t, 5*time.Second, cfg.BotInterval("premarket", time.Minute))
	})

	t.Run("ignores garbage", func(t *testing.T) {
		t.Setenv("PREMARKET_INTERVAL", "soon")
		assert.Equal(t, time.Minute, cfg.BotInterval("premarket", time.Minute))
	})
}

func TestBotUniverseOverride(t *testing.T) {
	cfg := &Config{}

	t.Run("none configured", func(t *testing.T) {
		assert.Empty(t, cfg.BotUniverseOverride("volume"))
	})

	t.Run("global override", func(t *testing.T) {
		t.Setenv("TICKER_UNIVERSE", "aapl, msft ,NVDA")
		assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, cfg.BotUniverseOverride("volume"))
	})

	t.Run("per-bot override wins", func(t *testing.T) {
		t.Setenv("TICKER_UNIVERSE", "AAPL")
		t.Setenv("VOLUME_TICKER_UNIVERSE", "TSLA,AMD")
		assert.Equal(t, []string{"TSLA", "AMD"}, cfg.BotUniverseOverride("volume"))
	})
}

func TestBotEnabled(t *testing.T) {
	t.Run("disabled list", func(t *testing.T) {
		cfg := &Config{
			DisabledBots: map[string]bool{"premarket": true},
			TestModeBots: map[string]bool{},
		}
		assert.False(t, cfg.BotEnabled("Premarket"))
		assert.True(t, cfg.BotEnabled("volume"))
	})

	t.Run("test mode allowlist", func(t *testing.T) {
		cfg := &Config{
			DisabledBots: map[string]bool{},
			TestModeBots: map[string]bool{"debug_ping": true},
		}
		assert.True(t, cfg.BotEnabled("debug_ping"))
		assert.False(t, cfg.BotEnabled("premarket"))
	})
}

func TestBackupConfig_Enabled(t *testing.T) {
	b := &BackupConfig{}
	assert.False(t, b.Enabled())

	b = &BackupConfig{
		Endpoint:  "https://example.r2.cloudflarestorage.com",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "stats",
	}
	assert.True(t, b.Enabled())
}
