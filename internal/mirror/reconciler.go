package mirror

import (
	"fmt"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
)

// Reconciler removes replica entries that have no counterpart in the source.
type Reconciler struct {
	w      replicaWriter
	filter *Filter
}

// NewReconciler creates a Reconciler over fsys.
func NewReconciler(fsys FS, opts Options) *Reconciler {
	return &Reconciler{
		w:      newReplicaWriter(fsys, opts),
		filter: opts.Filter,
	}
}

// sourceIndex is the source side of one directory level, keyed by exact
// name. opaque holds symlinked directories and dangling links: the
// propagator skips them, so their replica namesakes are neither deleted nor
// entered. byKey lists the source names under each nameKey.
type sourceIndex struct {
	dirs   mapset.Set[string]
	files  mapset.Set[string]
	opaque mapset.Set[string]
	byKey  map[string][]string
}

func (ix *sourceIndex) has(name string) bool {
	return ix.dirs.Contains(name) || ix.files.Contains(name) || ix.opaque.Contains(name)
}

// match returns the source name a replica entry corresponds to. The exact
// name wins. A source name in another normalization form matches only when
// both names resolve to the same replica entry, so on a byte-exact
// filesystem the replica's differently encoded name is stale.
func (ix *sourceIndex) match(fsys FS, replicaDir, name string) (string, bool) {
	if ix.has(name) {
		return name, true
	}

	for _, candidate := range ix.byKey[nameKey(name)] {
		if sameEntry(fsys, replicaDir, candidate, name) {
			return candidate, true
		}
	}

	return "", false
}

// Reconcile walks replicaRoot and deletes every entry whose relative path
// does not exist under sourceRoot with the same kind. A stale directory is
// cleared bottom-up before it is removed; a directory that still has a
// source counterpart survives and only its stale children go.
func (r *Reconciler) Reconcile(sourceRoot, replicaRoot string) (Stats, error) {
	var st Stats

	err := r.reconcileDir(sourceRoot, replicaRoot, "", &st)

	return st, err
}

func (r *Reconciler) reconcileDir(sourceRoot, replicaRoot, rel string, st *Stats) error {
	index, err := r.indexSource(underRoot(sourceRoot, rel))
	if err != nil {
		return err
	}

	replicaDir := underRoot(replicaRoot, rel)

	entries, err := r.w.fs.ReadDir(replicaDir)
	if err != nil {
		return fmt.Errorf("listing replica %s: %w", replicaDir, err)
	}

	for _, entry := range entries {
		childRel := joinRel(rel, entry.Name())
		isDir := entry.IsDir()

		if r.filter.Excluded(childRel, isDir) {
			continue
		}

		srcName, matched := index.match(r.w.fs, replicaDir, entry.Name())

		switch {
		case matched && index.opaque.Contains(srcName):
			continue

		case matched && isDir && index.dirs.Contains(srcName):
			if err := r.reconcileDir(sourceRoot, replicaRoot, joinRel(rel, srcName), st); err != nil {
				return err
			}

		case matched && !isDir && index.files.Contains(srcName):
			continue

		default:
			if _, err := r.w.removeEntry(filepath.Join(replicaDir, entry.Name()), childRel, isDir, st); err != nil {
				return err
			}
		}
	}

	return nil
}

// indexSource lists srcDir and classifies each name the way the propagator
// would see it.
func (r *Reconciler) indexSource(srcDir string) (*sourceIndex, error) {
	entries, err := r.w.fs.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("listing source %s: %w", srcDir, err)
	}

	index := &sourceIndex{
		dirs:   mapset.NewThreadUnsafeSet[string](),
		files:  mapset.NewThreadUnsafeSet[string](),
		opaque: mapset.NewThreadUnsafeSet[string](),
		byKey:  make(map[string][]string, len(entries)),
	}

	for _, entry := range entries {
		name := entry.Name()

		info, ok, err := resolveSource(r.w.fs, filepath.Join(srcDir, name), entry)
		if err != nil {
			return nil, err
		}

		key := nameKey(name)
		index.byKey[key] = append(index.byKey[key], name)

		switch {
		case !ok:
			index.opaque.Add(name)
		case info.IsDir():
			index.dirs.Add(name)
		default:
			index.files.Add(name)
		}
	}

	return index, nil
}
