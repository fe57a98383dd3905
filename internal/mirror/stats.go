package mirror

import (
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Stats counts the mutations made by one component or one whole pass.
type Stats struct {
	DirsCreated  int
	FilesCreated int
	FilesUpdated int
	FilesDeleted int
	DirsDeleted  int
	BytesCopied  int64
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.DirsCreated += o.DirsCreated
	s.FilesCreated += o.FilesCreated
	s.FilesUpdated += o.FilesUpdated
	s.FilesDeleted += o.FilesDeleted
	s.DirsDeleted += o.DirsDeleted
	s.BytesCopied += o.BytesCopied
}

// Changes is the total number of create, update and delete actions.
func (s Stats) Changes() int {
	return s.DirsCreated + s.FilesCreated + s.FilesUpdated + s.FilesDeleted + s.DirsDeleted
}

// LogAttrs renders the counts as log attributes.
func (s Stats) LogAttrs() []any {
	return []any{
		slog.Int("dirs_created", s.DirsCreated),
		slog.Int("files_created", s.FilesCreated),
		slog.Int("files_updated", s.FilesUpdated),
		slog.Int("files_deleted", s.FilesDeleted),
		slog.Int("dirs_deleted", s.DirsDeleted),
		slog.String("copied", humanize.Bytes(uint64(s.BytesCopied))),
	}
}
