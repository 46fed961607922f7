package enrich

import (
	"github.com/poiesic/catalogit/core"
)

// DefaultTargetMatchRate is the match rate below which a warning is logged.
const DefaultTargetMatchRate = 0.8

// Report summarizes one enrichment run. ArtifactErrors counts failed
// writes of the unresolved products file; they never fail the run.
type Report struct {
	Total             int
	Matched           int
	Manual            int
	Fuzzy             int
	Unresolved        int
	Updated           int
	PersistenceErrors int
	ArtifactErrors    int
	Errors            []error
}

// MatchRate returns the fraction of spreadsheet products that were matched.
func (r *Report) MatchRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Total)
}

// Check returns a CompletenessError when fewer than minMatched products
// were updated. A minimum of zero disables the check.
func (r *Report) Check(minMatched int) error {
	if minMatched <= 0 || r.Updated >= minMatched {
		return nil
	}
	return &core.CompletenessError{Phase: "enrich", Achieved: r.Updated, Required: minMatched}
}

// Counters flattens the report for run summaries.
func (r *Report) Counters() map[string]int {
	return map[string]int{
		"total":              r.Total,
		"matched":            r.Matched,
		"manual":             r.Manual,
		"fuzzy":              r.Fuzzy,
		"unresolved":         r.Unresolved,
		"updated":            r.Updated,
		"persistence_errors": r.PersistenceErrors,
		"artifact_errors":    r.ArtifactErrors,
	}
}

// Coverage describes how much of the catalog carries problem mappings.
type Coverage struct {
	Enriched int
	Total    int
	Samples  []*core.Product
}

// Rate returns the enriched fraction of the catalog.
func (c *Coverage) Rate() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Enriched) / float64(c.Total)
}
