package mirror

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// replicaWriter owns every mutation of the replica tree and emits exactly
// one log record per mutation. Entries the filter excludes are never
// removed, not even inside a directory that is being deleted.
type replicaWriter struct {
	fs     FS
	filter *Filter
	dryRun bool
	logger *slog.Logger
}

func newReplicaWriter(fsys FS, opts Options) replicaWriter {
	return replicaWriter{
		fs:     fsys,
		filter: opts.Filter,
		dryRun: opts.DryRun,
		logger: opts.logger(),
	}
}

func (w *replicaWriter) logAction(msg, path string) {
	if w.dryRun {
		w.logger.Info(msg, slog.String("path", path), slog.Bool("dry_run", true))
		return
	}

	w.logger.Info(msg, slog.String("path", path))
}

func (w *replicaWriter) createDir(path string, st *Stats) error {
	if !w.dryRun {
		if err := w.fs.MkdirAll(path, dirPermissions); err != nil {
			return fmt.Errorf("creating directory %s: %w", path, err)
		}
	}

	st.DirsCreated++
	w.logAction("created directory", path)

	return nil
}

func (w *replicaWriter) copyFile(src, dst string, update bool, st *Stats) error {
	if !w.dryRun {
		n, err := w.fs.CopyFile(src, dst)
		if err != nil {
			return fmt.Errorf("copying %s: %w", dst, err)
		}

		st.BytesCopied += n
	}

	if update {
		st.FilesUpdated++
		w.logAction("updated file", dst)
	} else {
		st.FilesCreated++
		w.logAction("created file", dst)
	}

	return nil
}

func (w *replicaWriter) removeFile(path string, st *Stats) error {
	if !w.dryRun {
		if err := w.fs.RemoveFile(path); err != nil {
			return fmt.Errorf("deleting file %s: %w", path, err)
		}
	}

	st.FilesDeleted++
	w.logAction("deleted file", path)

	return nil
}

// removeTree deletes the directory at path, whose replica-relative path is
// rel, bottom-up: its files first, then each subdirectory through the same
// procedure, then the directory itself once it is empty. Every removal is
// logged before its parent's. Excluded entries stay, and so does every
// directory holding one; kept reports whether anything under path survived.
func (w *replicaWriter) removeTree(path, rel string, st *Stats) (kept bool, err error) {
	if w.filter.Excluded(rel, true) {
		return true, nil
	}

	entries, err := w.fs.ReadDir(path)
	if err != nil {
		return false, fmt.Errorf("listing %s: %w", path, err)
	}

	var subdirs []fs.DirEntry

	for _, entry := range entries {
		if entry.IsDir() {
			subdirs = append(subdirs, entry)
			continue
		}

		childRel := joinRel(rel, entry.Name())
		if w.filter.Excluded(childRel, false) {
			kept = true
			continue
		}

		if err := w.removeFile(filepath.Join(path, entry.Name()), st); err != nil {
			return false, err
		}
	}

	for _, entry := range subdirs {
		subKept, err := w.removeTree(filepath.Join(path, entry.Name()), joinRel(rel, entry.Name()), st)
		if err != nil {
			return false, err
		}

		kept = kept || subKept
	}

	if kept {
		w.logger.Debug("keeping directory that holds excluded entries", slog.String("path", path))
		return true, nil
	}

	if !w.dryRun {
		if err := w.fs.RemoveDir(path); err != nil {
			return false, fmt.Errorf("deleting directory %s: %w", path, err)
		}
	}

	st.DirsDeleted++
	w.logAction("deleted directory", path)

	return false, nil
}

// removeEntry deletes a replica entry of either kind. kept reports that the
// entry, or part of it, is excluded and was left in place.
func (w *replicaWriter) removeEntry(path, rel string, isDir bool, st *Stats) (kept bool, err error) {
	if isDir {
		return w.removeTree(path, rel, st)
	}

	if w.filter.Excluded(rel, false) {
		return true, nil
	}

	return false, w.removeFile(path, st)
}
