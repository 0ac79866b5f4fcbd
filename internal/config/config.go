// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port     int
	LogLevel string
	DevMode  bool

	// Scheduler
	ScanInterval time.Duration // base tick of the scheduler loop
	BotTimeout   time.Duration // global per-run budget for every bot

	// Stats / heartbeat
	StatsPath         string
	HeartbeatInterval time.Duration

	// Universe
	UniverseHardCap int
	VolumeCoverage  float64

	// Bot gating
	DisabledBots map[string]bool
	TestModeBots map[string]bool

	// Market data provider
	PolygonKey     string
	PolygonBaseURL string

	// Telegram routing
	TelegramAlertsToken string
	TelegramAlertsChat  string
	TelegramStatusToken string
	TelegramStatusChat  string

	// Global scan thresholds some bots reference
	MinRVOL   float64
	MinVolume float64

	// Extra ETF symbols excluded from equity scans
	ETFBlacklist []string

	Backup *BackupConfig
}

// BackupConfig holds R2 (S3-compatible) backup configuration for the stats
// document. Backup is disabled unless all connection fields are set.
type BackupConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Schedule  string // cron spec, seconds field included
}

// Enabled reports whether enough configuration is present to attempt uploads.
func (b *BackupConfig) Enabled() bool {
	return b.Endpoint != "" && b.AccessKey != "" && b.SecretKey != "" && b.Bucket != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8000),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		ScanInterval: time.Duration(getEnvAsInt("SCAN_INTERVAL_SECONDS", 20)) * time.Second,
		BotTimeout:   time.Duration(getEnvAsInt("BOT_TIMEOUT_SECONDS", 180)) * time.Second,

		StatsPath:         getEnv("STATUS_STATS_PATH", "/tmp/moneysignal_stats.json"),
		HeartbeatInterval: time.Duration(getEnvAsFloat("STATUS_HEARTBEAT_INTERVAL_MIN", 5) * float64(time.Minute)),

		UniverseHardCap: getEnvAsInt("UNIVERSE_HARD_CAP", 250),
		VolumeCoverage:  getEnvAsFloat("UNIVERSE_VOLUME_COVERAGE", 0.90),

		DisabledBots: parseBotSet(os.Getenv("DISABLED_BOTS")),
		TestModeBots: parseBotSet(os.Getenv("TEST_MODE_BOTS")),

		PolygonKey:     getEnv("POLYGON_KEY", os.Getenv("POLYGON_API_KEY")),
		PolygonBaseURL: getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),

		TelegramAlertsToken: getEnv("TELEGRAM_TOKEN_ALERTS", ""),
		TelegramAlertsChat:  getEnv("TELEGRAM_CHAT_ALL", ""),
		TelegramStatusToken: getEnv("TELEGRAM_TOKEN_STATUS", ""),
		TelegramStatusChat:  getEnv("TELEGRAM_CHAT_STATUS", ""),

		MinRVOL:   getEnvAsFloat("MIN_RVOL_GLOBAL", 2.0),
		MinVolume: getEnvAsFloat("MIN_VOLUME_GLOBAL", 500_000),

		ETFBlacklist: ParseTickerList(os.Getenv("ETF_BLACKLIST")),

		Backup: &BackupConfig{
			Endpoint:  getEnv("R2_ENDPOINT", ""),
			AccessKey: getEnv("R2_ACCESS_KEY_ID", ""),
			SecretKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Bucket:    getEnv("R2_BUCKET", ""),
			Schedule:  getEnv("R2_BACKUP_SCHEDULE", "0 0 22 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive, got %s", c.ScanInterval)
	}
	if c.BotTimeout <= 0 {
		return fmt.Errorf("bot timeout must be positive, got %s", c.BotTimeout)
	}
	// The cap is a ceiling, not an off switch: zero would silently clip
	// every universe to empty and disable all scanners.
	if c.UniverseHardCap <= 0 {
		return fmt.Errorf("universe hard cap must be positive, got %d", c.UniverseHardCap)
	}
	return nil
}

// BotInterval returns the effective scan interval for a bot: the
// <NAME>_INTERVAL env var when set, otherwise the registry default.
// Values below 5 seconds are clamped to 5 seconds.
func (c *Config) BotInterval(name string, fallback time.Duration) time.Duration {
	key := strings.ToUpper(name) + "_INTERVAL"
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if secs < 5 {
		secs = 5
	}
	return time.Duration(secs) * time.Second
}

// BotMaxUniverse returns the per-bot soft universe cap from
// <NAME>_MAX_UNIVERSE, or the supplied default.
func (c *Config) BotMaxUniverse(name string, fallback int) int {
	key := strings.ToUpper(name) + "_MAX_UNIVERSE"
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// BotUniverseOverride returns the explicit symbol list for a bot:
// <NAME>_TICKER_UNIVERSE first, then the global TICKER_UNIVERSE.
// An empty slice means no override is configured.
func (c *Config) BotUniverseOverride(name string) []string {
	key := strings.ToUpper(name) + "_TICKER_UNIVERSE"
	if raw := os.Getenv(key); raw != "" {
		return ParseTickerList(raw)
	}
	return ParseTickerList(os.Getenv("TICKER_UNIVERSE"))
}

// BotEnabled applies the DISABLED_BOTS / TEST_MODE_BOTS filters.
// When a test-mode allowlist is set, only the listed bots run.
func (c *Config) BotEnabled(name string) bool {
	lname := strings.ToLower(name)
	if c.DisabledBots[lname] {
		return false
	}
	if len(c.TestModeBots) > 0 && !c.TestModeBots[lname] {
		return false
	}
	return true
}

// ParseTickerList splits a comma-separated symbol list, trimming and
// upper-casing entries.
func ParseTickerList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBotSet(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			set[p] = true
		}
	}
	return set
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
