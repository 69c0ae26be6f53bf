package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, Config{Level: "info", Format: "json"}))
	logger.Info("dataset loaded", slog.Int("records", 3))
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "dataset loaded", line["msg"])
	assert.Equal(t, 3.0, line["records"])
}

func TestNewHandler_TextLevel(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, Config{Level: "warn"})
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestSetup_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := DefaultConfig()
	cfg.FilePath = filepath.Join(t.TempDir(), "logs", "server.log")
	cleanup, err := Setup(cfg)
	require.NoError(t, err)
	slog.Info("hello")
	assert.NoError(t, cleanup())
	assert.FileExists(t, cfg.FilePath)
}
