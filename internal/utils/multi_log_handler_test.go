package utils

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiLogHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debugH := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnH := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewMultiLogHandler(debugH, warnH)).With("round", "r1").WithGroup("sync")

	logger.Debug("scan", "files", 3)
	logger.Warn("skipped", "path", "a.txt")

	assert.Contains(t, debugBuf.String(), "msg=scan")
	assert.Contains(t, debugBuf.String(), "msg=skipped")
	assert.Contains(t, debugBuf.String(), "round=r1")
	assert.Contains(t, debugBuf.String(), "sync.path=a.txt")

	assert.NotContains(t, warnBuf.String(), "msg=scan")
	assert.Contains(t, warnBuf.String(), "msg=skipped")
}

func TestMultiLogHandlerEnabled(t *testing.T) {
	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := NewMultiLogHandler(warnH)

	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}
