package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/dirmirror/internal/mirror"
)

// errVerifyMismatch makes the process exit 1 without an error message; the
// report itself has already been printed.
var errVerifyMismatch = errors.New("replica differs from source")

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [SOURCE REPLICA]",
		Short: "Report how the replica differs from the source",
		Long: `Compare the two trees without modifying either. Reports entries missing
from the replica, replica entries with no source counterpart, entries of the
wrong kind, and replica files older than their source: exactly what the next
pass would change. Excludes and mod_time_window apply as they do to a pass.

Exit code 0 if the trees match; exit code 1 if any difference is found.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: runVerify,
	}

	cmd.Flags().BoolVar(&flagJSON, "json", false, "output in JSON format")

	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg := resolvedCfg

	logger, closeLog, err := buildLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	report, err := mirror.Verify(mirror.NewOSFS(), cfg.Source, cfg.Replica, mirror.Options{
		Filter:        mirror.NewFilter(cfg.Exclude),
		ModTimeWindow: cfg.ModTimeWindow,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("verifying: %w", err)
	}

	out := cmd.OutOrStdout()

	if flagJSON {
		if err := printVerifyJSON(out, report); err != nil {
			return err
		}
	} else {
		printVerifyTable(out, report)
	}

	if len(report.Mismatches) > 0 {
		return errVerifyMismatch
	}

	return nil
}

func printVerifyJSON(w io.Writer, report *mirror.VerifyReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printVerifyTable(w io.Writer, report *mirror.VerifyReport) {
	fmt.Fprintf(w, "Compared: %d files\n", report.Checked)

	if len(report.Mismatches) == 0 {
		fmt.Fprintln(w, "Replica matches source.")
		return
	}

	fmt.Fprintf(w, "Differences: %d\n\n", len(report.Mismatches))

	headers := []string{"PATH", "STATUS", "DETAIL"}
	rows := make([][]string, len(report.Mismatches))

	for i := range report.Mismatches {
		m := &report.Mismatches[i]
		rows[i] = []string{m.Path, m.Status, describeMismatch(m)}
	}

	printTable(w, headers, rows)
}

// describeMismatch renders the DETAIL column for one difference.
func describeMismatch(m *mirror.VerifyResult) string {
	switch m.Status {
	case mirror.VerifyMissing:
		return m.Source + " not in replica"
	case mirror.VerifyExtra:
		return m.Replica + " not in source"
	case mirror.VerifyKindMismatch:
		return fmt.Sprintf("source %s, replica %s", m.Source, m.Replica)
	case mirror.VerifyStale:
		return formatStaleness(m.Source, m.Replica)
	default:
		return ""
	}
}
