// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/fieldscope-mcp/pkg/jsoncompact"
)

// Search and paging defaults
const (
	DefaultFuzzyThreshold = 0.25
	DefaultSearchLimit    = 1000
	DefaultMaxQueryLength = 100
	DefaultPageSize       = 200
	DefaultPageStep       = 100
)

// Config holds all configuration for the MCP server.
type Config struct {
	// Search
	FuzzyThreshold   float64 // FUZZY_THRESHOLD, default 0.25, clamped to [0,1]
	SearchLimit      int     // SEARCH_LIMIT, default 1000
	MaxQueryLength   int     // MAX_QUERY_LENGTH, default 100 (runes)
	ResultCacheItems int     // RESULT_CACHE_ITEMS, default 256
	BuildWorkers     int     // BUILD_WORKERS, default 8
	ProfileSamples   int     // PROFILE_SAMPLES, records sampled by describe, default 5000 (0 = all)

	// Query controller
	Debounce time.Duration // DEBOUNCE_MS, default 200ms
	PageSize int           // PAGE_SIZE, default 200
	PageStep int           // PAGE_STEP, default 100

	// Ingestion
	FetchTimeout  time.Duration // FETCH_TIMEOUT_MS, default 15000ms (15s)
	FetchMaxBytes int64         // FETCH_MAX_BYTES, default 64 MiB
	WatchFiles    bool          // WATCH_FILES, default false
	WatchDebounce time.Duration // WATCH_DEBOUNCE_MS, default 500ms
	// REFRESH_SCHEDULE, cron expression for re-fetching URL datasets; "" disables
	RefreshSchedule string

	// Settings
	SettingsFile string // SETTINGS_FILE, default "" (in memory only)

	// Compaction defaults for record payloads in tool output
	CompactMaxArrayItems int // COMPACT_MAX_ARRAY_ITEMS
	CompactMaxStringLen  int // COMPACT_MAX_STRING_LEN
	CompactMaxDepth      int // COMPACT_MAX_DEPTH

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json", default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		FuzzyThreshold:   clamp01(getEnvFloat("FUZZY_THRESHOLD", DefaultFuzzyThreshold)),
		SearchLimit:      getEnvInt("SEARCH_LIMIT", DefaultSearchLimit),
		MaxQueryLength:   getEnvInt("MAX_QUERY_LENGTH", DefaultMaxQueryLength),
		ResultCacheItems: getEnvInt("RESULT_CACHE_ITEMS", 256),
		BuildWorkers:     getEnvInt("BUILD_WORKERS", 8),
		ProfileSamples:   getEnvInt("PROFILE_SAMPLES", 5000),

		Debounce: getEnvDurationMs("DEBOUNCE_MS", 200),
		PageSize: getEnvInt("PAGE_SIZE", DefaultPageSize),
		PageStep: getEnvInt("PAGE_STEP", DefaultPageStep),

		FetchTimeout:    getEnvDurationMs("FETCH_TIMEOUT_MS", 15000),
		FetchMaxBytes:   int64(getEnvInt("FETCH_MAX_BYTES", 64<<20)),
		WatchFiles:      getEnvBool("WATCH_FILES", false),
		WatchDebounce:   getEnvDurationMs("WATCH_DEBOUNCE_MS", 500),
		RefreshSchedule: getEnvString("REFRESH_SCHEDULE", ""),

		SettingsFile: getEnvString("SETTINGS_FILE", ""),

		// Compaction defaults (from jsoncompact package)
		CompactMaxArrayItems: getEnvInt("COMPACT_MAX_ARRAY_ITEMS", jsoncompact.DefaultMaxArrayItems),
		CompactMaxStringLen:  getEnvInt("COMPACT_MAX_STRING_LEN", jsoncompact.DefaultMaxStringLen),
		CompactMaxDepth:      getEnvInt("COMPACT_MAX_DEPTH", jsoncompact.DefaultMaxDepth),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// Defaults returns the configuration Load produces with an empty environment.
func Defaults() *Config {
	return &Config{
		FuzzyThreshold:       DefaultFuzzyThreshold,
		SearchLimit:          DefaultSearchLimit,
		MaxQueryLength:       DefaultMaxQueryLength,
		ResultCacheItems:     256,
		BuildWorkers:         8,
		ProfileSamples:       5000,
		Debounce:             200 * time.Millisecond,
		PageSize:             DefaultPageSize,
		PageStep:             DefaultPageStep,
		FetchTimeout:         15 * time.Second,
		FetchMaxBytes:        64 << 20,
		WatchDebounce:        500 * time.Millisecond,
		CompactMaxArrayItems: jsoncompact.DefaultMaxArrayItems,
		CompactMaxStringLen:  jsoncompact.DefaultMaxStringLen,
		CompactMaxDepth:      jsoncompact.DefaultMaxDepth,
		LogLevel:             "info",
		LogFormat:            "text",
		LogMaxSizeMB:         10,
		LogMaxBackups:        5,
		LogMaxAgeDays:        28,
		LogCompress:          true,
	}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
