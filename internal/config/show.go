package config

import (
	"fmt"
	"io"
	"strings"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	if r.ConfigPath != "" {
		ew.printf("# Effective configuration (file: %s)\n\n", r.ConfigPath)
	} else {
		ew.printf("# Effective configuration (no config file)\n\n")
	}

	ew.printf("source          = %q\n", r.Source)
	ew.printf("replica         = %q\n", r.Replica)
	ew.printf("wait_time       = %d\n", int(r.Interval.Seconds()))
	ew.printf("mod_time_window = %q\n", r.ModTimeWindow.String())
	ew.printf("dry_run         = %t\n", r.DryRun)
	ew.printf("lock_file       = %q\n", r.LockFile)
	ew.printf("exclude         = [%s]\n", joinQuoted(r.Exclude))
	ew.printf("watch           = %t\n", r.Watch)
	ew.printf("watch_debounce  = %q\n", r.WatchDebounce.String())
	ew.printf("log_file        = %q\n", r.LogFile)
	ew.printf("log_level       = %q\n", r.LogLevel)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops, so callers can chain
// printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// joinQuoted formats a string slice as comma-separated quoted values.
func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}

	return strings.Join(quoted, ", ")
}
