package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatStaleness(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		replica string
		want    string
	}{
		{"hours", "2024-01-01T12:00:00Z", "2024-01-01T09:00:00Z", "replica 3 hours older"},
		{"days", "2024-01-10T00:00:00Z", "2024-01-08T00:00:00Z", "replica 2 days older"},
		{"unparseable", "yesterday", "2024-01-01T00:00:00Z", "source yesterday, replica 2024-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatStaleness(tt.source, tt.replica))
		})
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer

	headers := []string{"PATH", "STATUS", "DETAIL"}
	rows := [][]string{
		{"docs/readme.md", "stale", "replica 3 hours older"},
		{"x", "extra", "file not in source"},
	}

	printTable(&buf, headers, rows)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	// Columns line up under their headers.
	statusCol := strings.Index(lines[0], "STATUS")
	assert.Equal(t, statusCol, strings.Index(lines[1], "stale"))
	assert.Equal(t, statusCol, strings.Index(lines[2], "extra"))

	for _, line := range lines {
		assert.Equal(t, strings.TrimRight(line, " "), line, "trailing whitespace")
	}
}
