// Package cache holds the latest successfully computed derived views of a
// document. Fields are replaced independently and atomically; a failed fetch
// leaves its field at the prior value, so readers fall back to the last good
// state instead of regressing to empty.
package cache

import (
	"sync"

	"github.com/liasis/editor/internal/analysis"
)

// Snapshot is the derived state of one document at a point in time. Fields
// may lag each other in recency; each individually reflects the most recent
// successful fetch of that kind. SourceText and Version identify the buffer
// state that produced the most recent successful replacement.
type Snapshot struct {
	Symbols    analysis.SymbolTable
	Navigation analysis.NavigationIndex
	Highlights analysis.HighlightRanges
	SourceText string
	Version    uint64
}

// DerivedCache is the only shared state between the analysis path (writer)
// and the presentation path (reader). Replacement of one field is O(1) and
// independent of the others.
type DerivedCache struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewDerivedCache returns an empty cache.
func NewDerivedCache() *DerivedCache {
	return &DerivedCache{}
}

// ReplaceSymbolTable swaps in a new symbol table produced from the given
// buffer state.
func (c *DerivedCache) ReplaceSymbolTable(table analysis.SymbolTable, sourceText string, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Symbols = table
	c.snap.SourceText = sourceText
	c.snap.Version = version
}

// ReplaceNavigationIndex swaps in a new navigation index produced from the
// given buffer state.
func (c *DerivedCache) ReplaceNavigationIndex(index analysis.NavigationIndex, sourceText string, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Navigation = index
	c.snap.SourceText = sourceText
	c.snap.Version = version
}

// ReplaceHighlightRanges swaps in a new set of underline spans.
func (c *DerivedCache) ReplaceHighlightRanges(ranges analysis.HighlightRanges) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Highlights = ranges
}

// CurrentSnapshot returns a copy of the current derived state. The copy is
// safe to read while further replacements happen.
func (c *DerivedCache) CurrentSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		SourceText: c.snap.SourceText,
		Version:    c.snap.Version,
	}
	if c.snap.Symbols != nil {
		snap.Symbols = make(analysis.SymbolTable, len(c.snap.Symbols))
		for name, sym := range c.snap.Symbols {
			snap.Symbols[name] = sym
		}
	}
	if c.snap.Navigation != nil {
		snap.Navigation = make(analysis.NavigationIndex, len(c.snap.Navigation))
		copy(snap.Navigation, c.snap.Navigation)
	}
	if c.snap.Highlights != nil {
		snap.Highlights = make(analysis.HighlightRanges, len(c.snap.Highlights))
		copy(snap.Highlights, c.snap.Highlights)
	}
	return snap
}
