package search

import (
	"github.com/poiesic/mailvec/core"
	"github.com/poiesic/mailvec/storage"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimension int)
	AfterVectorQuery(matches []*storage.Match)
	CollapsedToEmail(emailID string, best *storage.Match)
	Finish(results []*core.EmailMatch)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                  {}
func (n *noopMonitor) AfterVectorQuery(_ []*storage.Match)        {}
func (n *noopMonitor) CollapsedToEmail(_ string, _ *storage.Match) {}
func (n *noopMonitor) Finish(_ []*core.EmailMatch)                {}
