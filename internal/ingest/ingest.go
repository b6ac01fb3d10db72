// Package ingest runs one ingestion: locate the newest spreadsheet
// snapshot, extract its worksheets and write the resulting artifacts.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/sheet"
	"github.com/nhle/case-ingest/internal/source"
	"github.com/nhle/case-ingest/internal/store"
)

// Runner wires a source, the extractor and a store into one run.
type Runner struct {
	source  source.Source
	store   store.Store
	sheets  model.SheetsConfig
	tempDir string
	logger  *log.Logger
}

// NewRunner creates a Runner. Downloaded snapshots are kept under a
// per-run sub-directory of tempDir that is removed when the run ends.
func NewRunner(
	src source.Source,
	st store.Store,
	sheets model.SheetsConfig,
	tempDir string,
	logger *log.Logger,
) *Runner {
	return &Runner{
		source:  src,
		store:   st,
		sheets:  sheets,
		tempDir: tempDir,
		logger:  logger,
	}
}

// Run performs a single all-or-nothing ingestion. It returns the written
// artifacts, or an error classified by source.KindOf. A snapshot that is
// not newer than the stored one yields source.ErrAlreadyCurrent and writes
// nothing.
func (r *Runner) Run(ctx context.Context) (*store.Artifacts, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run", runID)

	prev := r.previous(logger)

	dir, cleanup, err := r.scratchDir(runID, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	outcome, err := r.source.Locate(ctx, dir, prev)
	if err != nil {
		return nil, err
	}

	switch outcome.Kind {
	case source.Rejected:
		logger.Info("data is already current", "candidate", outcome.Instant, "stored", prev.Datetime)
		return nil, fmt.Errorf(
			"%w (snapshot of %s, last ingested %s)",
			source.ErrAlreadyCurrent,
			outcome.Instant.Format("2006-01-02T15:04:05Z07:00"),
			prev.Datetime.Format("2006-01-02T15:04:05Z07:00"),
		)
	case source.NotFound:
		return nil, source.ErrNotFound
	}

	lastUpdate := &model.LastUpdate{Datetime: outcome.Instant}
	logger.Info("using spreadsheet", "file", outcome.Path, "last_update", lastUpdate.Datetime)

	wb, err := sheet.Open(outcome.Path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	result, err := sheet.Extract(wb, r.sheets, lastUpdate.Datetime, logger)
	if err != nil {
		return nil, err
	}

	artifacts := &store.Artifacts{
		Inspections: result.Inspections,
		LastUpdate:  lastUpdate,
		MainSummary: result.MainSummary,
		News:        result.News,
		Patients:    result.Patients,
	}

	if err := r.store.WriteArtifacts(*artifacts); err != nil {
		return nil, fmt.Errorf("writing artifacts: %w", err)
	}

	logger.Info("done")

	return artifacts, nil
}

// previous loads the stored revision. Unreadable state is treated as a
// first run.
func (r *Runner) previous(logger *log.Logger) *model.LastUpdate {
	prev, err := r.store.LoadLastUpdate()
	if err != nil {
		logger.Warn("ignoring stored last update", "err", err)
		return nil
	}
	if prev == nil {
		logger.Info("no stored last update, treating as first run")
		return nil
	}

	logger.Info("stored last update", "datetime", prev.Datetime)
	return prev
}

// scratchDir creates the run's temporary directory for sources that
// download. The returned cleanup removes it and is safe to call always.
func (r *Runner) scratchDir(runID string, logger *log.Logger) (string, func(), error) {
	if r.source.Type() != source.SourceTypeEmail {
		return "", func() {}, nil
	}

	dir := filepath.Join(r.tempDir, runID)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", nil, fmt.Errorf("creating temporary directory %s: %w", dir, err)
	}

	logger.Debug("created temporary directory", "dir", dir)

	return dir, func() {
		logger.Debug("removing temporary directory", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("removing temporary directory", "dir", dir, "err", err)
		}
	}, nil
}
