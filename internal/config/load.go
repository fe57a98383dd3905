package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal, with "did you mean?"
// suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the four-layer override chain:
// defaults -> config file -> environment variables -> CLI flags. A config
// path named explicitly (flag or environment) must exist; the platform
// default may be absent.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	// 1. Resolve config path: CLI > env > default
	cfgPath := DefaultConfigPath()
	explicit := false

	if env.ConfigPath != "" {
		cfgPath, explicit = env.ConfigPath, true
	}

	if cli.ConfigPath != "" {
		cfgPath, explicit = cli.ConfigPath, true
	}

	// 2. Load config file
	var (
		cfg *Config
		err error
	)

	if explicit {
		cfg, err = Load(cfgPath)
	} else {
		cfg, err = LoadOrDefault(cfgPath)
	}

	if err != nil {
		return nil, err
	}

	// 3. Apply env overrides
	applyEnv(cfg, env)

	// 4. Apply CLI overrides (pointer fields: nil = not specified)
	applyCLI(cfg, cli)

	// 5. Parse, absolutize, and validate the merged result
	resolved, err := buildResolved(cfg, cfgPath)
	if err != nil {
		return nil, err
	}

	if err := ValidateResolved(resolved); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, nil
}

func applyEnv(cfg *Config, env EnvOverrides) {
	if env.Source != "" {
		cfg.Source = env.Source
	}

	if env.Replica != "" {
		cfg.Replica = env.Replica
	}

	if env.LogFile != "" {
		cfg.LogFile = env.LogFile
	}
}

func applyCLI(cfg *Config, cli CLIOverrides) {
	if cli.Source != nil {
		cfg.Source = *cli.Source
	}

	if cli.Replica != nil {
		cfg.Replica = *cli.Replica
	}

	if cli.WaitTime != nil {
		cfg.WaitTime = *cli.WaitTime
	}

	if cli.LogFile != nil {
		cfg.LogFile = *cli.LogFile
	}

	if len(cli.Exclude) > 0 {
		cfg.Exclude = append(append([]string(nil), cfg.Exclude...), cli.Exclude...)
	}

	if cli.Watch != nil {
		cfg.Watch = *cli.Watch
	}

	if cli.DryRun != nil {
		cfg.DryRun = *cli.DryRun
	}
}

// buildResolved converts the merged Config into its resolved form. Duration
// strings from the file were validated by Load, but defaults and overrides
// pass through here too, so parse errors are still reported.
func buildResolved(cfg *Config, cfgPath string) (*Resolved, error) {
	window, err := time.ParseDuration(cfg.ModTimeWindow)
	if err != nil {
		return nil, fmt.Errorf("mod_time_window: invalid duration %q: %w", cfg.ModTimeWindow, err)
	}

	debounce, err := time.ParseDuration(cfg.WatchDebounce)
	if err != nil {
		return nil, fmt.Errorf("watch_debounce: invalid duration %q: %w", cfg.WatchDebounce, err)
	}

	r := &Resolved{
		ConfigPath:    cfgPath,
		Source:        absPath(cfg.Source),
		Replica:       absPath(cfg.Replica),
		Interval:      time.Duration(cfg.WaitTime) * time.Second,
		ModTimeWindow: window,
		Exclude:       cfg.Exclude,
		Watch:         cfg.Watch,
		WatchDebounce: debounce,
		DryRun:        cfg.DryRun,
		LockFile:      absPath(cfg.LockFile),
		LogFile:       absPath(cfg.LogFile),
		LogLevel:      cfg.LogLevel,
	}

	if r.LockFile == "" && r.Replica != "" {
		r.LockFile = DefaultLockFile(r.Replica)
	}

	return r, nil
}

// absPath expands a leading "~/" and makes path absolute against the working
// directory. Empty stays empty.
func absPath(path string) string {
	if path == "" {
		return ""
	}

	path = expandTilde(path)

	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return filepath.Clean(path)
}

// expandTilde replaces a leading "~/" with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}
