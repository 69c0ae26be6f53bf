package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"FUZZY_THRESHOLD", "SEARCH_LIMIT", "MAX_QUERY_LENGTH", "RESULT_CACHE_ITEMS", "BUILD_WORKERS",
		"DEBOUNCE_MS", "PAGE_SIZE", "PAGE_STEP", "FETCH_TIMEOUT_MS", "FETCH_MAX_BYTES",
		"WATCH_FILES", "WATCH_DEBOUNCE_MS", "REFRESH_SCHEDULE", "SETTINGS_FILE",
		"COMPACT_MAX_ARRAY_ITEMS", "COMPACT_MAX_STRING_LEN", "COMPACT_MAX_DEPTH",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS",
		"LOG_MAX_AGE_DAYS", "LOG_COMPRESS",
	} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FUZZY_THRESHOLD", "0.4")
	t.Setenv("SEARCH_LIMIT", "50")
	t.Setenv("DEBOUNCE_MS", "10")
	t.Setenv("WATCH_FILES", "yes")
	t.Setenv("REFRESH_SCHEDULE", "@every 1m")

	cfg := Load()
	assert.Equal(t, 0.4, cfg.FuzzyThreshold)
	assert.Equal(t, 50, cfg.SearchLimit)
	assert.Equal(t, 10*time.Millisecond, cfg.Debounce)
	assert.True(t, cfg.WatchFiles)
	assert.Equal(t, "@every 1m", cfg.RefreshSchedule)
}

func TestLoad_ThresholdClamped(t *testing.T) {
	t.Setenv("FUZZY_THRESHOLD", "3")
	assert.Equal(t, 1.0, Load().FuzzyThreshold)

	t.Setenv("FUZZY_THRESHOLD", "-1")
	assert.Equal(t, 0.0, Load().FuzzyThreshold)

	t.Setenv("FUZZY_THRESHOLD", "junk")
	assert.Equal(t, DefaultFuzzyThreshold, Load().FuzzyThreshold)
}
