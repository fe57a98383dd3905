package mirror

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"
)

// Verify status constants (used in VerifyResult.Status).
const (
	VerifyMissing      = "missing"
	VerifyExtra        = "extra"
	VerifyKindMismatch = "kind_mismatch"
	VerifyStale        = "stale"
)

// VerifyResult is one difference between the trees.
type VerifyResult struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Source  string `json:"source,omitempty"`
	Replica string `json:"replica,omitempty"`
}

// VerifyReport summarizes a verification run.
type VerifyReport struct {
	Checked    int            `json:"checked"`
	Mismatches []VerifyResult `json:"mismatches"`
}

// Verify compares the trees without modifying either. It reports what the
// next pass would change: entries missing from the replica, replica entries
// with no source counterpart, kind mismatches and replica files older than
// their source. A missing or extra directory is reported once, not per
// descendant; one the pass would keep, because it holds only excluded
// entries, is not reported. Mismatches are sorted by path.
func Verify(fsys FS, sourceRoot, replicaRoot string, opts Options) (*VerifyReport, error) {
	v := &verifier{
		fs:      fsys,
		filter:  opts.Filter,
		window:  opts.ModTimeWindow,
		report:  &VerifyReport{Mismatches: []VerifyResult{}},
		planner: newReplicaWriter(fsys, Options{Filter: opts.Filter, DryRun: true}),
	}

	if err := v.verifyDir(sourceRoot, replicaRoot, ""); err != nil {
		return nil, err
	}

	sort.Slice(v.report.Mismatches, func(i, j int) bool {
		return v.report.Mismatches[i].Path < v.report.Mismatches[j].Path
	})

	return v.report, nil
}

// verifier walks both trees once. planner runs dry-run deletions to measure
// what a pass would remove from an extra directory.
type verifier struct {
	fs      FS
	filter  *Filter
	window  time.Duration
	report  *VerifyReport
	planner replicaWriter
}

func (v *verifier) verifyDir(sourceRoot, replicaRoot, rel string) error {
	srcDir := underRoot(sourceRoot, rel)
	replicaDir := underRoot(replicaRoot, rel)

	srcEntries, err := v.fs.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("listing source %s: %w", srcDir, err)
	}

	replicaEntries, err := v.fs.ReadDir(replicaDir)
	if err != nil {
		return fmt.Errorf("listing replica %s: %w", replicaDir, err)
	}

	byName := make(map[string]fs.DirEntry, len(replicaEntries))
	byKey := make(map[string][]string, len(replicaEntries))

	for _, entry := range replicaEntries {
		byName[entry.Name()] = entry
		key := nameKey(entry.Name())
		byKey[key] = append(byKey[key], entry.Name())
	}

	seen := make(map[string]bool, len(srcEntries))

	var subdirs []string

	for _, entry := range srcEntries {
		replicaEntry, exists := v.matchReplica(replicaDir, entry.Name(), byName, byKey)
		if exists {
			seen[replicaEntry.Name()] = true
		}

		info, ok, err := resolveSource(v.fs, filepath.Join(srcDir, entry.Name()), entry)
		if err != nil {
			return err
		}

		childRel := joinRel(rel, entry.Name())
		if !ok || v.filter.Excluded(childRel, info.IsDir()) {
			continue
		}

		if !exists {
			v.add(childRel, VerifyMissing, kindOf(info.IsDir()), "")
			continue
		}

		if replicaEntry.IsDir() != info.IsDir() {
			v.add(childRel, VerifyKindMismatch, kindOf(info.IsDir()), kindOf(replicaEntry.IsDir()))
			continue
		}

		if info.IsDir() {
			subdirs = append(subdirs, childRel)
			continue
		}

		if err := v.compareFile(childRel, filepath.Join(replicaDir, replicaEntry.Name()), info); err != nil {
			return err
		}
	}

	for _, entry := range replicaEntries {
		if seen[entry.Name()] {
			continue
		}

		childRel := joinRel(rel, entry.Name())
		if v.filter.Excluded(childRel, entry.IsDir()) {
			continue
		}

		if entry.IsDir() {
			var st Stats

			// A directory holding only excluded entries is kept by a pass.
			if _, err := v.planner.removeTree(filepath.Join(replicaDir, entry.Name()), childRel, &st); err != nil {
				return err
			}

			if st.Changes() == 0 {
				continue
			}
		}

		v.add(childRel, VerifyExtra, "", kindOf(entry.IsDir()))
	}

	for _, sub := range subdirs {
		if err := v.verifyDir(sourceRoot, replicaRoot, sub); err != nil {
			return err
		}
	}

	return nil
}

// matchReplica finds the replica entry for a source name, by the same rule
// the Reconciler uses: the exact name, or another normalization form only
// when both names resolve to the same replica entry.
func (v *verifier) matchReplica(replicaDir, name string, byName map[string]fs.DirEntry, byKey map[string][]string) (fs.DirEntry, bool) {
	if entry, ok := byName[name]; ok {
		return entry, true
	}

	for _, candidate := range byKey[nameKey(name)] {
		if sameEntry(v.fs, replicaDir, name, candidate) {
			return byName[candidate], true
		}
	}

	return nil, false
}

func (v *verifier) compareFile(rel, replicaPath string, srcInfo fs.FileInfo) error {
	v.report.Checked++

	replicaInfo, err := v.fs.Lstat(replicaPath)
	if err != nil {
		return fmt.Errorf("stat replica %s: %w", replicaPath, err)
	}

	if srcInfo.ModTime().Sub(replicaInfo.ModTime()) > v.window {
		v.add(rel, VerifyStale,
			srcInfo.ModTime().UTC().Format(time.RFC3339Nano),
			replicaInfo.ModTime().UTC().Format(time.RFC3339Nano))
	}

	return nil
}

func (v *verifier) add(rel, status, source, replica string) {
	v.report.Mismatches = append(v.report.Mismatches, VerifyResult{
		Path:    rel,
		Status:  status,
		Source:  source,
		Replica: replica,
	})
}

func kindOf(isDir bool) string {
	if isDir {
		return "directory"
	}

	return "file"
}
