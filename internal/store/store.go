package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/case-ingest/internal/model"
)

// Fixed artifact file names inside the output directory.
const (
	FileInspectionsSummary = "inspections_summary.json"
	FileLastUpdate         = "last_update.json"
	FileMainSummary        = "main_summary.json"
	FileNews               = "news.json"
	FilePatientsSummary    = "patients_summary.json"
)

// Artifacts are the records written at the end of a successful run.
type Artifacts struct {
	Inspections *model.Summary
	LastUpdate  *model.LastUpdate
	MainSummary *model.Status
	News        *model.NewsItems
	Patients    *model.Summary
}

// Store defines the persistence interface for the previous run's
// timestamp and the run's output records.
type Store interface {
	// LoadLastUpdate returns the stored revision, or nil if none exists.
	LoadLastUpdate() (*model.LastUpdate, error)

	// WriteArtifacts writes every record, replacing existing files.
	WriteArtifacts(a Artifacts) error
}

// JSONStore implements Store as pretty-printed JSON files in a directory.
type JSONStore struct {
	dir string
}

// NewJSONStore returns a store rooted at dir.
func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{dir: dir}
}

// Dir returns the output directory.
func (s *JSONStore) Dir() string { return s.dir }

// LoadLastUpdate reads last_update.json. A missing file yields (nil, nil);
// unreadable or malformed content yields an error.
func (s *JSONStore) LoadLastUpdate() (*model.LastUpdate, error) {
	path := filepath.Join(s.dir, FileLastUpdate)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var lu model.LastUpdate
	if err := json.Unmarshal(data, &lu); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lu.Datetime.IsZero() {
		return nil, fmt.Errorf("parsing %s: missing datetime", path)
	}

	return &lu, nil
}

// WriteArtifacts writes all five records. The first failure aborts.
func (s *JSONStore) WriteArtifacts(a Artifacts) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", s.dir, err)
	}

	files := []struct {
		name   string
		record any
	}{
		{FilePatientsSummary, a.Patients},
		{FileInspectionsSummary, a.Inspections},
		{FileMainSummary, a.MainSummary},
		{FileNews, a.News},
		{FileLastUpdate, a.LastUpdate},
	}

	for _, f := range files {
		if err := s.writeJSON(f.name, f.record); err != nil {
			return err
		}
	}

	return nil
}

// writeJSON writes record to a temporary file and renames it into place.
func (s *JSONStore) writeJSON(name string, record any) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}
