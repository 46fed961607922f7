package scrape

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/poiesic/catalogit/core"
)

// Stats summarizes one scrape run.
type Stats struct {
	// Found is the number of distinct detail URLs on the listing page
	Found int
	// Scraped is the number of pages whose fields were extracted
	Scraped int
	// Inserted is the number of successful upserts, new or refreshed
	Inserted int
	// Updated is the subset of Inserted that refreshed an existing product
	Updated int

	FetchErrors       int
	ExtractionErrors  int
	PersistenceErrors int
	Errors            []error
	Duration          time.Duration

	mu sync.Mutex
}

// Check returns a CompletenessError when fewer than minRatio of the
// discovered products were stored, or when nothing was discovered.
func (s *Stats) Check(minRatio float64) error {
	required := int(math.Ceil(minRatio * float64(s.Found)))
	if s.Found == 0 {
		required = max(required, 1)
	}
	if s.Found > 0 && s.Inserted >= required {
		return nil
	}
	return &core.CompletenessError{Phase: "scrape", Achieved: s.Inserted, Required: required}
}

// Counters flattens the stats for run summaries.
func (s *Stats) Counters() map[string]int {
	return map[string]int{
		"found":              s.Found,
		"scraped":            s.Scraped,
		"inserted":           s.Inserted,
		"updated":            s.Updated,
		"fetch_errors":       s.FetchErrors,
		"extraction_errors":  s.ExtractionErrors,
		"persistence_errors": s.PersistenceErrors,
	}
}

// ErrorCount returns the number of failed items.
func (s *Stats) ErrorCount() int {
	return s.FetchErrors + s.ExtractionErrors + s.PersistenceErrors
}

func (s *Stats) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(err, core.ErrFetch):
		s.FetchErrors++
	case errors.Is(err, core.ErrExtraction), errors.Is(err, core.ErrValidation):
		s.ExtractionErrors++
	case errors.Is(err, core.ErrPersistence):
		s.PersistenceErrors++
	}
	s.Errors = append(s.Errors, err)
}

func (s *Stats) recordScraped() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Scraped++
}

func (s *Stats) recordStored(inserted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Inserted++
	if !inserted {
		s.Updated++
	}
}
