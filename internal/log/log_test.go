package log

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRetainsRecentRecords(t *testing.T) {
	h := NewHandler(nil, 3)
	logger := slog.New(h)
	for i := 0; i < 5; i++ {
		logger.Info(fmt.Sprintf("message %d", i))
	}

	logs := h.Logs()
	require.Len(t, logs, 3)
	assert.Equal(t, "message 2", logs[0].Message)
	assert.Equal(t, "message 4", logs[2].Message)
}

func TestHandlerDerivedShareBuffer(t *testing.T) {
	h := NewHandler(nil, 0)
	logger := slog.New(h).With("component", "nmcli").WithGroup("cmd")
	logger.Warn("command failed", "status", 4)

	found := h.Find(slog.LevelWarn, "failed")
	require.Len(t, found, 1)
	assert.Equal(t, slog.LevelWarn, found[0].Level)
	assert.Empty(t, h.Find(slog.LevelError, "failed"))
}

func TestNewWritesAndRetains(t *testing.T) {
	var buf bytes.Buffer
	logger, h := New(&buf, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("shown", "ssid", "Home")

	assert.Contains(t, buf.String(), "ssid=Home")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Len(t, h.Find(slog.LevelInfo, "shown"), 1)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
