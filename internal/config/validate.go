package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validation range constants.
const (
	minWaitTime = 1
	minInterval = time.Duration(minWaitTime) * time.Second
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateMirror(&cfg.MirrorConfig)...)
	errs = append(errs, validateFilter(&cfg.FilterConfig)...)
	errs = append(errs, validateWatch(&cfg.WatchConfig)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)

	return errors.Join(errs...)
}

// ValidateResolved checks the final merged result. Unlike Validate(), which
// checks raw config file values, this runs after env and CLI overrides, so
// it catches a bad --wait-time and a missing source or replica.
func ValidateResolved(r *Resolved) error {
	var errs []error

	if r.Source == "" {
		errs = append(errs, errors.New("source: required (positional argument, DIRMIRROR_SOURCE, or config key)"))
	} else if !filepath.IsAbs(r.Source) {
		errs = append(errs, fmt.Errorf("source: must be absolute after expansion, got %q", r.Source))
	}

	if r.Replica == "" {
		errs = append(errs, errors.New("replica: required (positional argument, DIRMIRROR_REPLICA, or config key)"))
	} else if !filepath.IsAbs(r.Replica) {
		errs = append(errs, fmt.Errorf("replica: must be absolute after expansion, got %q", r.Replica))
	}

	if r.Interval < minInterval {
		errs = append(errs, fmt.Errorf("wait_time: must be >= %d, got %d",
			minWaitTime, int(r.Interval/time.Second)))
	}

	if r.ModTimeWindow < 0 {
		errs = append(errs, fmt.Errorf("mod_time_window: must be >= 0, got %s", r.ModTimeWindow))
	}

	errs = append(errs, validateLogLevel(r.LogLevel)...)

	if r.LogFile == "" {
		errs = append(errs, errors.New("log_file: must not be empty"))
	}

	return errors.Join(errs...)
}

func validateMirror(m *MirrorConfig) []error {
	var errs []error

	if m.WaitTime < minWaitTime {
		errs = append(errs, fmt.Errorf("wait_time: must be >= %d, got %d", minWaitTime, m.WaitTime))
	}

	errs = append(errs, validateDurationNonNeg("mod_time_window", m.ModTimeWindow)...)

	return errs
}

func validateFilter(f *FilterConfig) []error {
	var errs []error

	for i, p := range f.Exclude {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("exclude[%d]: pattern must not be blank", i))
		}
	}

	return errs
}

func validateWatch(w *WatchConfig) []error {
	return validateDurationNonNeg("watch_debounce", w.WatchDebounce)
}

func validateDurationNonNeg(field, value string) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < 0 {
		return []error{fmt.Errorf("%s: must be >= 0, got %s", field, d)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)

	if l.LogFile == "" {
		errs = append(errs, errors.New("log_file: must not be empty"))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}
