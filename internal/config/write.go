package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// ErrConfigExists is returned by WriteTemplate when the target file is
// already present and overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// configTemplate is written by "config init". Every key is present as a
// commented-out default so users can discover each option without reading
// docs.
const configTemplate = `# dirmirror configuration
# Uncomment and modify to override defaults. CLI flags and DIRMIRROR_*
# environment variables take precedence over this file.

# Tree to mirror from, and tree to mirror into
# source = "~/Documents"
# replica = "/mnt/backup/Documents"

# Seconds to wait between passes
# wait_time = 60

# Treat modification times this close together as equal (e.g. "2s" for FAT)
# mod_time_window = "0s"

# Gitignore-style patterns hidden from the mirror on both sides
# exclude = [".DS_Store", "*.tmp", "node_modules/"]

# Start a pass early when the source changes
# watch = false
# watch_debounce = "2s"

# Log every action without modifying the replica
# dry_run = false

# Lock file guarding the replica (default: derived from the replica path)
# lock_file = ""

# Log file path and verbosity: debug, info, warn, error
# log_file = "sync_log.log"
# log_level = "info"
`

// WriteTemplate writes the commented default config to path. Parent
// directories are created as needed and the write is atomic.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	return atomicWriteFile(path, []byte(configTemplate))
}

// atomicWriteFile writes data to a temp file in the same directory and
// renames it over path.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
