package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink broken") }

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	t.Parallel()

	var debugBuf, errorBuf bytes.Buffer

	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h)

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger.Info("info record")
	logger.Error("error record")

	assert.Contains(t, debugBuf.String(), "info record")
	assert.Contains(t, debugBuf.String(), "error record")
	assert.NotContains(t, errorBuf.String(), "info record")
	assert.Contains(t, errorBuf.String(), "error record")
}

func TestMultiHandler_DisabledWhenNoHandlerAccepts(t *testing.T) {
	t.Parallel()

	h := NewMultiHandler(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer

	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)).With(slog.String("pass_id", "p1")).WithGroup("stats")

	logger.Info("synchronization finished", slog.Int("files_created", 2))

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "pass_id=p1")
		assert.Contains(t, out, "stats.files_created=2")
	}
}

func TestMultiHandler_OneFailureDoesNotStarveOthers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	good := slog.NewTextHandler(&buf, nil)
	bad := failingHandler{Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)}

	h := NewMultiHandler(bad, good)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "still delivered", 0)

	err := h.Handle(context.Background(), r)
	assert.ErrorContains(t, err, "sink broken")
	assert.Contains(t, buf.String(), "still delivered")
}
