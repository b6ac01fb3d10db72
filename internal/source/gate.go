package source

import (
	"regexp"
	"time"

	"github.com/nhle/case-ingest/internal/model"
)

// Candidate is an attachment seen while scanning messages. It only lives
// for the duration of selection.
type Candidate struct {
	Name    string
	Content []byte
	Instant time.Time
}

// Gate applies the naming pattern and the freshness check to candidates in
// traversal order. The first candidate whose name matches decides the
// outcome; later candidates are never consulted.
type Gate struct {
	pattern *regexp.Regexp
	prev    *model.LastUpdate
}

// NewGate returns a Gate for the given pattern and previously stored
// revision (nil when there is none).
func NewGate(pattern *regexp.Regexp, prev *model.LastUpdate) *Gate {
	return &Gate{pattern: pattern, prev: prev}
}

// Consider inspects one candidate. It reports decided=false when the
// candidate's name does not match and the scan should continue. A matching
// candidate is accepted only if its instant is strictly after the stored
// one; an equal instant counts as already current.
func (g *Gate) Consider(c Candidate) (outcome Outcome, decided bool) {
	if !g.pattern.MatchString(c.Name) {
		return Outcome{}, false
	}

	if g.prev != nil && !c.Instant.After(g.prev.Datetime) {
		return Outcome{Kind: Rejected, Instant: c.Instant}, true
	}

	return Outcome{Kind: Accepted, Instant: c.Instant}, true
}
