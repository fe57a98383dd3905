package mirror

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// relPath returns abs relative to root in slash form, the key that matches
// a source entry to its replica entry. The root itself maps to "".
func relPath(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", fmt.Errorf("relativizing %s against %s: %w", abs, root, err)
	}

	if rel == "." {
		return "", nil
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("relativizing %s: outside root %s", abs, root)
	}

	return filepath.ToSlash(rel), nil
}

// underRoot resolves a slash-separated relative path under root.
func underRoot(root, rel string) string {
	if rel == "" {
		return root
	}

	return filepath.Join(root, filepath.FromSlash(rel))
}

// joinRel appends name to a slash-separated relative path.
func joinRel(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}

// nameKey groups names that differ only in Unicode normalization form.
// Names are matched byte for byte; nameKey only picks the candidates that
// sameEntry is asked about.
func nameKey(name string) string {
	return norm.NFC.String(name)
}

// sameEntry reports whether names a and b in dir resolve to one replica
// entry. They do on filesystems that ignore normalization form (APFS,
// HFS+), where a listing may return a form other than the one looked up.
// On a byte-exact filesystem they are two entries, or b does not exist.
func sameEntry(fsys FS, dir, a, b string) bool {
	if a == b {
		return true
	}

	aInfo, err := fsys.Lstat(filepath.Join(dir, a))
	if err != nil {
		return false
	}

	bInfo, err := fsys.Lstat(filepath.Join(dir, b))
	if err != nil {
		return false
	}

	return os.SameFile(aInfo, bInfo)
}

// isNested reports whether inner is outer or lies beneath it.
func isNested(outer, inner string) bool {
	rel, err := filepath.Rel(outer, inner)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolveSource decides how a source entry takes part in the mirror.
// Symlinks to files are followed so their content is copied. Symlinks to
// directories and dangling links report ok=false: they are not descended
// into, and their replica namesakes are left alone.
func resolveSource(fsys FS, srcPath string, entry fs.DirEntry) (info fs.FileInfo, ok bool, err error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		info, err = entry.Info()
		if err != nil {
			return nil, false, fmt.Errorf("stat source %s: %w", srcPath, err)
		}

		return info, true, nil
	}

	info, err = fsys.Stat(srcPath)
	if err != nil || info.IsDir() {
		return nil, false, nil
	}

	return info, true, nil
}
