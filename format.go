package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// formatStaleness describes how far a replica file lags its source, given
// both modification times in RFC 3339 form (e.g. "replica 3 hours older").
// Unparseable input falls back to the raw timestamps.
func formatStaleness(source, replica string) string {
	src, srcErr := time.Parse(time.RFC3339Nano, source)
	dst, dstErr := time.Parse(time.RFC3339Nano, replica)

	if srcErr != nil || dstErr != nil {
		return fmt.Sprintf("source %s, replica %s", source, replica)
	}

	return "replica " + humanize.RelTime(dst, src, "older", "newer")
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	// Compute column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// printRow writes a single padded row.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
}
