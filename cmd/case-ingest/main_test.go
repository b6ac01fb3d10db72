package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/source"
	"github.com/nhle/case-ingest/tests/testutil"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "already current", err: fmt.Errorf("%w (snapshot of x)", source.ErrAlreadyCurrent), want: exitAlreadyCurrent},
		{name: "not found", err: source.ErrNotFound, want: exitFailure},
		{name: "config", err: &model.ConfigError{Field: "server", Message: "is required"}, want: exitFailure},
		{name: "usage", err: &usageError{err: fmt.Errorf("unknown flag: --nope")}, want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

// emptyConfig writes an empty YAML file to pass as --config.
func emptyConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "case-ingest.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	return path
}

// localArgs returns the flags of a local run over a valid workbook.
func localArgs(t *testing.T, outDir string) []string {
	t.Helper()

	path := testutil.NewWorkbook(t, "20230502data.xlsx",
		testutil.Sheet{Name: "positives", Rows: [][]any{{45048, 7}}},
		testutil.Sheet{Name: "tests", Rows: [][]any{{45048, 120, 45, 2, 30, 5, 1, 3, 8, 60, 4}}},
		testutil.Sheet{Name: "news", Rows: [][]any{{45048, "Testing site opened"}}},
	)

	return []string{
		"--mode", "local",
		"--file-path", path,
		"--output-dir", outDir,
		"--sheet-positives", "positives",
		"--sheet-tests", "tests",
		"--sheet-news", "news",
		"--log-level", "error",
	}
}

func TestRunLocal(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "data")

	code := run(append([]string{"--config", emptyConfig(t, dir)}, localArgs(t, outDir)...))
	require.Equal(t, exitOK, code)

	data, err := os.ReadFile(filepath.Join(outDir, "main_summary.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"attr": "Inspections"`)
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	config := emptyConfig(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"--config", config, "--no-such-flag"}},
		{
			name: "missing explicit config file",
			args: append([]string{"--config", filepath.Join(dir, "absent.yaml")}, localArgs(t, filepath.Join(dir, "data"))...),
		},
		{name: "missing mode", args: []string{"--config", config}},
		{name: "remote without server", args: []string{"--config", config, "--mode", "remote"}},
		{name: "missing local file", args: []string{"--config", config, "--mode", "local", "--file-path", filepath.Join(dir, "absent.xlsx")}},
		{name: "bad log level", args: []string{"--config", config, "--mode", "local", "--file-path", config, "--log-level", "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, exitFailure, run(tt.args))
		})
	}
}
