package local

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nhle/case-ingest/internal/model"
	"github.com/nhle/case-ingest/internal/source"
)

// Adapter implements source.Source for a spreadsheet already on disk. No
// freshness check applies; the revision instant is the time of the run.
type Adapter struct {
	path string
	now  func() time.Time
}

// NewAdapter creates a local source for the spreadsheet at path.
func NewAdapter(path string) *Adapter {
	return &Adapter{path: path, now: time.Now}
}

// Type returns the source type identifier for local files.
func (a *Adapter) Type() source.SourceType {
	return source.SourceTypeLocal
}

// Locate accepts the configured file unconditionally.
func (a *Adapter) Locate(_ context.Context, _ string, _ *model.LastUpdate) (source.Outcome, error) {
	info, err := os.Stat(a.path)
	if err != nil {
		return source.Outcome{}, &source.FormatError{
			File:    a.path,
			Message: "spreadsheet not accessible",
			Err:     err,
		}
	}
	if info.IsDir() {
		return source.Outcome{}, &source.FormatError{
			File:    a.path,
			Message: fmt.Sprintf("%s is a directory", a.path),
		}
	}

	return source.Outcome{
		Kind:    source.Accepted,
		Path:    a.path,
		Instant: a.now(),
	}, nil
}
