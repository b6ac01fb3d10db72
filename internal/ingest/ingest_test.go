package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/case-ingest/internal/logging"
	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/source"
	"github.com/nhle/case-ingest/internal/store"
	"github.com/nhle/case-ingest/tests/testutil"
)

var sheetNames = model.SheetsConfig{
	Positives: "positives",
	Tests:     "tests",
	News:      "news",
}

func workbook(t *testing.T) []byte {
	return testutil.WorkbookBytes(t,
		testutil.Sheet{Name: "positives", Rows: [][]any{{45047, 12}, {45048, 7}}},
		testutil.Sheet{Name: "tests", Rows: [][]any{
			{45048, 120, 45, 2, 30, 5, 1, 3, 8, 60, 4},
			{45047, 100},
		}},
		testutil.Sheet{Name: "news", Rows: [][]any{{45048, "Testing site opened", "https://example.org"}}},
	)
}

// mailSource offers fixed candidates to the selection gate and saves the
// accepted one, like the mailbox source does.
type mailSource struct {
	candidates []source.Candidate
	dirs       []string
	err        error
}

func (s *mailSource) Type() source.SourceType { return source.SourceTypeEmail }

func (s *mailSource) Locate(_ context.Context, dir string, prev *model.LastUpdate) (source.Outcome, error) {
	s.dirs = append(s.dirs, dir)
	if s.err != nil {
		return source.Outcome{}, s.err
	}

	gate := source.NewGate(regexp.MustCompile(`[0-9]{8}data\.xlsx$`), prev)
	for _, c := range s.candidates {
		outcome, decided := gate.Consider(c)
		if !decided {
			continue
		}
		if outcome.Kind == source.Accepted {
			outcome.Path = filepath.Join(dir, c.Name)
			if err := os.WriteFile(outcome.Path, c.Content, 0o600); err != nil {
				return source.Outcome{}, err
			}
		}
		return outcome, nil
	}

	return source.Outcome{Kind: source.NotFound}, nil
}

func TestRunWritesArtifactsOnce(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "data")
	tempDir := t.TempDir()
	instant := time.Date(2023, 5, 2, 1, 0, 0, 0, time.UTC)

	src := &mailSource{candidates: []source.Candidate{
		{Name: "notes.txt", Content: []byte("n/a"), Instant: instant},
		{Name: "20230502data.xlsx", Content: workbook(t), Instant: instant},
	}}
	runner := NewRunner(src, store.NewJSONStore(outDir), sheetNames, tempDir, logging.Discard())

	artifacts, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, artifacts.LastUpdate.Datetime.Equal(instant))
	assert.Len(t, artifacts.Patients.Data, 2)
	assert.Equal(t, uint32(120), artifacts.MainSummary.Value)
	assert.Len(t, artifacts.News.NewsItems, 1)

	for _, name := range []string{
		store.FileInspectionsSummary,
		store.FileLastUpdate,
		store.FileMainSummary,
		store.FileNews,
		store.FilePatientsSummary,
	} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	before, err := os.Stat(filepath.Join(outDir, store.FileLastUpdate))
	require.NoError(t, err)

	// Same snapshot again: nothing new to ingest.
	_, err = runner.Run(context.Background())
	require.ErrorIs(t, err, source.ErrAlreadyCurrent)
	assert.Equal(t, source.KindAlreadyCurrent, source.KindOf(err))

	after, err := os.Stat(filepath.Join(outDir, store.FileLastUpdate))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "rejected run must not rewrite artifacts")

	require.Len(t, src.dirs, 2)
	assert.NotEqual(t, src.dirs[0], src.dirs[1], "each run gets its own scratch directory")
	for _, dir := range src.dirs {
		assert.NoDirExists(t, dir)
	}
}

func TestRunOutcomes(t *testing.T) {
	stored := time.Date(2023, 5, 2, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		src      *mailSource
		wantKind source.Kind
	}{
		{
			name:     "nothing matches",
			src:      &mailSource{candidates: []source.Candidate{{Name: "report.pdf", Instant: stored.Add(time.Hour)}}},
			wantKind: source.KindNotFound,
		},
		{
			name: "older snapshot",
			src: &mailSource{candidates: []source.Candidate{
				{Name: "20230501data.xlsx", Instant: stored.Add(-24 * time.Hour)},
			}},
			wantKind: source.KindAlreadyCurrent,
		},
		{
			name: "unreadable spreadsheet",
			src: &mailSource{candidates: []source.Candidate{
				{Name: "20230503data.xlsx", Content: []byte("not a workbook"), Instant: stored.Add(time.Hour)},
			}},
			wantKind: source.KindFormat,
		},
		{
			name:     "mailbox failure",
			src:      &mailSource{err: &source.ProtocolError{Command: "SEARCH", Err: errors.New("BAD")}},
			wantKind: source.KindProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := t.TempDir()
			st := store.NewJSONStore(outDir)
			require.NoError(t, st.WriteArtifacts(store.Artifacts{LastUpdate: &model.LastUpdate{Datetime: stored}}))

			_, err := NewRunner(tt.src, st, sheetNames, t.TempDir(), logging.Discard()).Run(context.Background())
			assert.Equal(t, tt.wantKind, source.KindOf(err), "err: %v", err)

			prev, loadErr := st.LoadLastUpdate()
			require.NoError(t, loadErr)
			assert.True(t, prev.Datetime.Equal(stored), "stored revision must be unchanged")

			require.Len(t, tt.src.dirs, 1)
			assert.NoDirExists(t, tt.src.dirs[0])
		})
	}
}

func TestRunTreatsCorruptStateAsFirstRun(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, store.FileLastUpdate), []byte("{"), 0o644))

	src := &mailSource{candidates: []source.Candidate{
		{Name: "20230502data.xlsx", Content: workbook(t), Instant: time.Date(2023, 5, 2, 1, 0, 0, 0, time.UTC)},
	}}

	_, err := NewRunner(src, store.NewJSONStore(outDir), sheetNames, t.TempDir(), logging.Discard()).
		Run(context.Background())
	require.NoError(t, err)
}

func TestRunLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t), 0o600))
	outDir := t.TempDir()

	runner, err := FromConfig(context.Background(), &model.AppConfig{
		Mode:      model.ModeLocal,
		FilePath:  path,
		OutputDir: outDir,
		TempDir:   t.TempDir(),
		Sheets:    sheetNames,
	}, nil, nil, logging.Discard())
	require.NoError(t, err)

	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	// Local files are not subject to the freshness check.
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(outDir, store.FileMainSummary))
	assert.FileExists(t, path, "local input is left in place")
}
