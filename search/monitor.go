package search

import (
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/index"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Hooks run in order on the calling goroutine.
type SearchMonitor interface {
	Start(query core.Query)
	AfterVectorSearch(candidates []index.Neighbor)
	AfterFiltering(survivors []index.Neighbor)
	AfterAccessResolution(accessible int, err error)
	Finish(results []core.QueryResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Query)                   {}
func (n *noopMonitor) AfterVectorSearch(_ []index.Neighbor) {}
func (n *noopMonitor) AfterFiltering(_ []index.Neighbor)    {}
func (n *noopMonitor) AfterAccessResolution(_ int, _ error) {}
func (n *noopMonitor) Finish(_ []core.QueryResult)          {}
