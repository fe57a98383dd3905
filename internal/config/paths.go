package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "dirmirror"

// Config file name.
const configFileName = "config.toml"

// DefaultConfigDir returns the platform-specific directory for config files.
// On Linux, respects XDG_CONFIG_HOME (defaults to ~/.config/dirmirror).
// On macOS, uses ~/Library/Application Support/dirmirror per Apple guidelines.
// Other platforms fall back to ~/.config/dirmirror.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return linuxConfigDir(home)
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// linuxConfigDir returns the XDG-compliant config directory for Linux.
func linuxConfigDir(home string) string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the full path to the default config file.
// This is used as the fallback when neither DIRMIRROR_CONFIG nor --config
// is specified.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, configFileName)
}

// DefaultLockFile returns the lock path for a replica root. The name is a
// name-based UUID of the cleaned absolute path, so every process mirroring
// into the same replica contends for the same file regardless of the
// source it reads from.
func DefaultLockFile(replica string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.Clean(replica)))

	return filepath.Join(os.TempDir(), appName+"-"+id.String()+".lock")
}
