package search

import (
	"github.com/poiesic/catalogit/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterCandidateRetrieval(candidates []*core.SearchResult)
	Scored(product *core.Product, vectorScore, textScore, score float32)
	Failed(err error)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string) {}
func (n *noopMonitor) AfterCandidateRetrieval(_ []*core.SearchResult) {}
func (n *noopMonitor) Scored(_ *core.Product, _, _, _ float32) {}
func (n *noopMonitor) Failed(_ error) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
