package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// lockFilePermissions matches the standard config file permissions (owner rw, group/other r).
const lockFilePermissions = 0o644

// lockDirPermissions matches the standard directory permissions (owner rwx, group/other rx).
const lockDirPermissions = 0o755

// errLocked means another dirmirror process holds the replica's lock.
var errLocked = errors.New("another dirmirror is already mirroring into this replica")

// acquireLock takes an exclusive non-blocking lock on path and records the
// current PID in it. The returned release function unlocks and removes the
// file.
func acquireLock(path string) (release func(), err error) {
	if path == "" {
		return nil, errors.New("lock file path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), lockDirPermissions); err != nil {
		return nil, fmt.Errorf("creating lock file directory: %w", err)
	}

	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}

	if !locked {
		if pid, pidErr := readLockPID(path); pidErr == nil {
			return nil, fmt.Errorf("%w (PID %d holds %s)", errLocked, pid, path)
		}

		return nil, fmt.Errorf("%w (could not lock %s)", errLocked, path)
	}

	// flock locks the inode; truncating and rewriting keeps it.
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), lockFilePermissions); err != nil {
		fl.Unlock()

		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}

	return func() {
		os.Remove(path)
		fl.Unlock()
	}, nil
}

// readLockPID reads the PID recorded in a lock file.
func readLockPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in %s: %w", path, err)
	}

	return pid, nil
}
