package mirror

import (
	"errors"
	"fmt"
	"log/slog"
)

// Startup errors. No pass can succeed while one of these holds, so callers
// treat them as fatal rather than waiting for the next interval.
var (
	ErrSourceMissing = errors.New("source directory does not exist")
	ErrSourceNotDir  = errors.New("source is not a directory")
	ErrReplicaNotDir = errors.New("replica is not a directory")
	ErrNestedRoots   = errors.New("source and replica must not contain each other")
)

// PrepareRoots validates the two roots once at startup and creates the
// replica root when it is missing. Both paths must be absolute.
func PrepareRoots(fsys FS, sourceRoot, replicaRoot string, logger *slog.Logger) error {
	info, exists, err := pathExists(fsys, sourceRoot)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", sourceRoot, err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", ErrSourceMissing, sourceRoot)
	}

	if !info.IsDir() {
		if info, err = fsys.Stat(sourceRoot); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrSourceNotDir, sourceRoot)
		}
	}

	if isNested(sourceRoot, replicaRoot) || isNested(replicaRoot, sourceRoot) {
		return fmt.Errorf("%w: %s, %s", ErrNestedRoots, sourceRoot, replicaRoot)
	}

	info, exists, err = pathExists(fsys, replicaRoot)
	if err != nil {
		return fmt.Errorf("stat replica %s: %w", replicaRoot, err)
	}

	if !exists {
		if err := fsys.MkdirAll(replicaRoot, dirPermissions); err != nil {
			return fmt.Errorf("creating replica root %s: %w", replicaRoot, err)
		}

		if logger != nil {
			logger.Info("created replica root", slog.String("path", replicaRoot))
		}

		return nil
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrReplicaNotDir, replicaRoot)
	}

	return nil
}
