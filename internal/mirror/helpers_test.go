package mirror

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Fixed timestamps keep mtime comparisons independent of the wall clock.
var (
	t1 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	t3 = time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
)

// logRecord is a captured log entry reduced to what tests assert on.
type logRecord struct {
	Level   slog.Level
	Message string
	Path    string
	DryRun  bool
}

// recordingHandler captures every record it receives. Handlers derived via
// WithAttrs/WithGroup share the same sink.
type recordingHandler struct {
	mu      *sync.Mutex
	records *[]logRecord
}

func newRecorder() (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{mu: &sync.Mutex{}, records: &[]logRecord{}}
	return slog.New(h), h
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler       { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler            { return h }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	rec := logRecord{Level: r.Level, Message: r.Message}

	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "path":
			rec.Path = a.Value.String()
		case "dry_run":
			rec.DryRun = a.Value.Bool()
		}

		return true
	})

	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()

	return nil
}

func (h *recordingHandler) all() []logRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]logRecord(nil), *h.records...)
}

// actions returns "message path" for every create/update/delete record,
// with paths made relative to root.
func (h *recordingHandler) actions(t *testing.T, root string) []string {
	t.Helper()

	var out []string

	for _, rec := range h.all() {
		if rec.Path == "" || rec.Level != slog.LevelInfo {
			continue
		}

		rel, err := filepath.Rel(root, rec.Path)
		require.NoError(t, err)

		out = append(out, rec.Message+" "+filepath.ToSlash(rel))
	}

	return out
}

func (h *recordingHandler) messages() []string {
	var out []string
	for _, rec := range h.all() {
		out = append(out, rec.Message)
	}

	return out
}

// writeFile creates path (and parents) with content and mtime.
func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func mkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func modTime(t *testing.T, path string) time.Time {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	return info.ModTime()
}

// snapshot maps every relative path under root to "dir" or "file:<content>".
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	out := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			out[rel] = "dir"
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		out[rel] = "file:" + string(data)

		return nil
	})
	require.NoError(t, err)

	return out
}

// roots returns fresh, existing source and replica directories.
func roots(t *testing.T) (string, string) {
	t.Helper()

	base := t.TempDir()
	src := filepath.Join(base, "source")
	dst := filepath.Join(base, "replica")

	mkdir(t, src)
	mkdir(t, dst)

	return src, dst
}
