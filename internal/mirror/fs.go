// Package mirror implements one-way directory mirroring: a Propagator that
// creates and refreshes replica entries from the source tree, and a
// Reconciler that removes replica entries the source no longer has. A
// Runner drives both on a fixed interval.
//
// All filesystem access goes through the FS interface so tests can inject
// failures. Nothing in this package keeps state between passes; the two
// trees are the only state.
package mirror

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
)

// Permissions used for entries the mirror creates itself.
const (
	dirPermissions  = 0o755
	copyBufferBytes = 256 * 1024
)

// FS is the set of filesystem primitives the mirror needs. Every path is
// absolute.
type FS interface {
	// ReadDir lists a directory sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
	// Stat follows symlinks.
	Stat(name string) (fs.FileInfo, error)
	// Lstat does not follow symlinks.
	Lstat(name string) (fs.FileInfo, error)
	MkdirAll(name string, perm fs.FileMode) error
	// CopyFile copies src over dst, carrying the source mode bits and
	// modification time. It returns the number of bytes copied.
	CopyFile(src, dst string) (int64, error)
	// RemoveFile removes a single non-directory entry.
	RemoveFile(name string) error
	// RemoveDir removes an empty directory.
	RemoveDir(name string) error
}

// OSFS implements FS on the local filesystem.
type OSFS struct {
	bufPool sync.Pool
}

// NewOSFS returns an OSFS with a pooled copy buffer.
func NewOSFS() *OSFS {
	return &OSFS{
		bufPool: sync.Pool{New: func() any {
			b := make([]byte, copyBufferBytes)
			return &b
		}},
	}
}

func (o *OSFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (o *OSFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (o *OSFS) Lstat(name string) (fs.FileInfo, error)     { return os.Lstat(name) }

func (o *OSFS) MkdirAll(name string, perm fs.FileMode) error {
	return os.MkdirAll(name, perm)
}

func (o *OSFS) RemoveFile(name string) error {
	info, err := os.Lstat(name)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return fmt.Errorf("removing %s: %w", name, errIsDirectory)
	}

	return os.Remove(name)
}

// RemoveDir relies on rmdir semantics: a populated directory is an error,
// never a recursive delete.
func (o *OSFS) RemoveDir(name string) error {
	info, err := os.Lstat(name)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("removing %s: %w", name, errNotDirectory)
	}

	return os.Remove(name)
}

// CopyFile writes into a temporary file next to dst and renames it into
// place, so a reader of the replica never sees a half-written file under the
// final name. A temp file orphaned by a crash has no source counterpart and
// is removed by the next reconcile.
func (o *OSFS) CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening source %s: %w", src, err)
	}
	defer in.Close()

	srcInfo, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source %s: %w", src, err)
	}

	out, err := os.CreateTemp(filepath.Dir(dst), ".dirmirror-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for %s: %w", dst, err)
	}

	tmpPath := out.Name()
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	bufPtr := o.bufPool.Get().(*[]byte)
	defer o.bufPool.Put(bufPtr)

	n, err := io.CopyBuffer(out, in, *bufPtr)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("copying %s to %s: %w", src, tmpPath, err)
	}

	if err := out.Chmod(srcInfo.Mode().Perm()); err != nil {
		out.Close()
		return n, fmt.Errorf("setting mode on %s: %w", tmpPath, err)
	}

	// Close before Chtimes: flushing can touch the mtime.
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("closing %s: %w", tmpPath, err)
	}

	mtime := srcInfo.ModTime()
	if err := os.Chtimes(tmpPath, mtime, mtime); err != nil {
		return n, fmt.Errorf("setting times on %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		return n, fmt.Errorf("renaming %s to %s: %w", tmpPath, dst, err)
	}

	tmpPath = ""

	return n, nil
}

var (
	errIsDirectory  = errors.New("is a directory")
	errNotDirectory = errors.New("not a directory")
)

// pathExists reports whether name exists without following a final symlink.
// A parent that is a file (dry runs leave kind mismatches in place) counts
// as absence.
func pathExists(fsys FS, name string) (fs.FileInfo, bool, error) {
	info, err := fsys.Lstat(name)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return info, true, nil
}
