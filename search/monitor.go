package search

import "github.com/poiesic/quarry/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate results during a search.
type Monitor interface {
	Start(query string)
	AfterVectorSearch(matches []*core.ScoredChunk)
	AfterLexicalSearch(matches []*core.ScoredChunk)
	LexicalSearchFailed(err error)
	AfterFusion(results []*FusedChunk)
	AfterTrustScoring(results []*FusedChunk)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.ScoredChunk)  {}
func (n *noopMonitor) AfterLexicalSearch(_ []*core.ScoredChunk) {}
func (n *noopMonitor) LexicalSearchFailed(_ error)              {}
func (n *noopMonitor) AfterFusion(_ []*FusedChunk)              {}
func (n *noopMonitor) AfterTrustScoring(_ []*FusedChunk)        {}
func (n *noopMonitor) Finish(_ *Response)                       {}
