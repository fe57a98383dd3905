// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for dirmirror. Values resolve through a
// four-layer override chain: defaults -> config file -> environment -> CLI
// flags.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
// All keys are flat; the embedded sections only group related fields.
type Config struct {
	MirrorConfig
	FilterConfig
	WatchConfig
	LoggingConfig
}

// MirrorConfig names the two trees and controls pass timing.
type MirrorConfig struct {
	Source        string `toml:"source"`
	Replica       string `toml:"replica"`
	WaitTime      int    `toml:"wait_time"`
	ModTimeWindow string `toml:"mod_time_window"`
	DryRun        bool   `toml:"dry_run"`
	LockFile      string `toml:"lock_file"`
}

// FilterConfig holds gitignore-style patterns hidden from the mirror on
// both sides.
type FilterConfig struct {
	Exclude []string `toml:"exclude"`
}

// WatchConfig controls the optional filesystem watcher that starts passes
// early when the source changes.
type WatchConfig struct {
	Watch         bool   `toml:"watch"`
	WatchDebounce string `toml:"watch_debounce"`
}

// LoggingConfig controls where pass records go and how verbose they are.
type LoggingConfig struct {
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value": --watch=false must beat watch = true
// in the file, while an absent flag must not.
type CLIOverrides struct {
	ConfigPath string   // --config flag (empty = use default)
	Source     *string  // first positional argument
	Replica    *string  // second positional argument
	WaitTime   *int     // --wait-time flag
	LogFile    *string  // --logfile flag
	Exclude    []string // --exclude flags, appended to the file's patterns
	Watch      *bool    // --watch flag
	DryRun     *bool    // --dry-run flag
}

// Resolved is the final configuration after all four layers have been
// applied. Paths are absolute and durations parsed.
type Resolved struct {
	ConfigPath    string        `json:"config_path"`
	Source        string        `json:"source"`
	Replica       string        `json:"replica"`
	Interval      time.Duration `json:"interval"`
	ModTimeWindow time.Duration `json:"mod_time_window"`
	Exclude       []string      `json:"exclude"`
	Watch         bool          `json:"watch"`
	WatchDebounce time.Duration `json:"watch_debounce"`
	DryRun        bool          `json:"dry_run"`
	LockFile      string        `json:"lock_file"`
	LogFile       string        `json:"log_file"`
	LogLevel      string        `json:"log_level"`
}
