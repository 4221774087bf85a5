package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := NewConsoleHandler(buf, &slog.HandlerOptions{Level: level})
	return slog.New(handler), buf
}

func TestConsoleHandler_Format(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.Info("Linking transfer", "amount", "10.00", "score", 1)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "Linking transfer")
	assert.Contains(t, out, "amount=10.00")
	assert.Contains(t, out, "score=1")
	// Buffers are not terminals, so no color escapes.
	assert.NotContains(t, out, "\033[")
}

func TestConsoleHandler_PromotesSystemAttr(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)

	logger.With("system", "link").Info("Starting link run")

	out := buf.String()
	assert.Contains(t, out, "[link]")
	assert.NotContains(t, out, "system=link")
}

func TestConsoleHandler_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "[WARN]")
}

func TestConsoleHandler_Levels(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelDebug)

	logger.Debug("d")
	logger.Error("e")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG]")
	assert.Contains(t, out, "[ERROR]")
}

func TestConsoleHandler_Enabled(t *testing.T) {
	h := NewConsoleHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})

	ctx := context.Background()
	require.True(t, h.Enabled(ctx, slog.LevelInfo))
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
}
