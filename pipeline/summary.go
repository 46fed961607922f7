package pipeline

import (
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/embedding"
	"github.com/poiesic/catalogit/enrich"
	"github.com/poiesic/catalogit/scrape"
)

const (
	PhaseScrape = "scrape"
	PhaseEnrich = "enrich"
	PhaseEmbed  = "embed"
)

// Phases lists the pipeline phases in execution order.
var Phases = []string{PhaseScrape, PhaseEnrich, PhaseEmbed}

// Summary collects the results of the phases of one invocation.
// A phase that did not run leaves its field nil.
type Summary struct {
	Scrape *scrape.Stats
	Enrich *enrich.Report
	Embed  *embedding.Stats

	// Runs holds the recorded outcome of each phase that ran, in order.
	Runs []*core.RunSummary
}

// Succeeded reports whether every phase that ran passed its gate.
func (s *Summary) Succeeded() bool {
	for _, run := range s.Runs {
		if !run.Succeeded {
			return false
		}
	}
	return true
}

// Status describes the catalog and the last run of each phase.
type Status struct {
	// LastRuns maps a phase to its latest summary. Phases that never ran are absent.
	LastRuns map[string]*core.RunSummary
	Coverage *enrich.Coverage
}
