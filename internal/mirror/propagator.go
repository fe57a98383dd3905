package mirror

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"
)

// Propagator makes every source entry exist, up to date, in the replica.
type Propagator struct {
	w      replicaWriter
	filter *Filter
	window time.Duration
	logger *slog.Logger
}

// NewPropagator creates a Propagator over fsys.
func NewPropagator(fsys FS, opts Options) *Propagator {
	return &Propagator{
		w:      newReplicaWriter(fsys, opts),
		filter: opts.Filter,
		window: opts.ModTimeWindow,
		logger: opts.logger(),
	}
}

// Propagate walks sourceRoot top-down. Missing directories are created before
// their children are visited, missing files are copied, and a replica file is
// overwritten only when its source is strictly newer. Replica entries of the
// wrong kind are deleted and recreated. The first error aborts the walk; the
// returned Stats cover what was done up to that point.
func (p *Propagator) Propagate(sourceRoot, replicaRoot string) (Stats, error) {
	var st Stats

	err := p.propagateDir(sourceRoot, replicaRoot, "", &st)

	return st, err
}

func (p *Propagator) propagateDir(sourceRoot, replicaRoot, rel string, st *Stats) error {
	srcDir := underRoot(sourceRoot, rel)

	entries, err := p.w.fs.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("listing source %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		childRel := joinRel(rel, entry.Name())
		srcPath := filepath.Join(srcDir, entry.Name())

		info, ok, err := resolveSource(p.w.fs, srcPath, entry)
		if err != nil {
			return err
		}

		if !ok {
			p.logger.Debug("skipping symlinked directory or dangling link", slog.String("path", srcPath))
			continue
		}

		if p.filter.Excluded(childRel, info.IsDir()) {
			continue
		}

		dstPath := underRoot(replicaRoot, childRel)

		if info.IsDir() {
			ready, err := p.ensureDir(dstPath, childRel, st)
			if err != nil {
				return err
			}

			if !ready {
				continue
			}

			if err := p.propagateDir(sourceRoot, replicaRoot, childRel, st); err != nil {
				return err
			}

			continue
		}

		if err := p.syncFile(srcPath, dstPath, childRel, info, st); err != nil {
			return err
		}
	}

	return nil
}

// ensureDir makes dstPath a directory. ready is false when an excluded
// replica file holds the name; the source directory is then skipped.
func (p *Propagator) ensureDir(dstPath, rel string, st *Stats) (ready bool, err error) {
	info, exists, err := pathExists(p.w.fs, dstPath)
	if err != nil {
		return false, fmt.Errorf("stat replica %s: %w", dstPath, err)
	}

	if exists && info.IsDir() {
		return true, nil
	}

	if exists {
		kept, err := p.w.removeEntry(dstPath, rel, false, st)
		if err != nil {
			return false, err
		}

		if kept {
			p.keptWarning(dstPath)
			return false, nil
		}
	}

	return true, p.w.createDir(dstPath, st)
}

func (p *Propagator) syncFile(srcPath, dstPath, rel string, srcInfo fs.FileInfo, st *Stats) error {
	dstInfo, exists, err := pathExists(p.w.fs, dstPath)
	if err != nil {
		return fmt.Errorf("stat replica %s: %w", dstPath, err)
	}

	switch {
	case !exists:
		return p.w.copyFile(srcPath, dstPath, false, st)

	case dstInfo.IsDir():
		kept, err := p.w.removeTree(dstPath, rel, st)
		if err != nil {
			return err
		}

		if kept {
			p.keptWarning(dstPath)
			return nil
		}

		return p.w.copyFile(srcPath, dstPath, false, st)

	case p.newer(srcInfo.ModTime(), dstInfo.ModTime()):
		return p.w.copyFile(srcPath, dstPath, true, st)
	}

	return nil
}

// keptWarning reports a source entry that cannot be mirrored because the
// replica entry of the other kind holds excluded content.
func (p *Propagator) keptWarning(dstPath string) {
	p.logger.Warn("replica entry of the wrong kind holds excluded content, not replacing it",
		slog.String("path", dstPath))
}

// newer reports whether src is later than dst by more than the window.
func (p *Propagator) newer(src, dst time.Time) bool {
	return src.Sub(dst) > p.window
}
