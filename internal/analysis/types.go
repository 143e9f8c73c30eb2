// Package analysis defines the contract to the external introspection engine:
// the derived-view types it produces, the capability-probed port through which
// it is called, and the error taxonomy its failures map onto.
package analysis

// Span is a half-open range [Start, End) of absolute offsets into the source
// text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether the offset lies inside the span. The end offset
// counts as inside, matching a cursor sitting just after the last character
// of a symbol.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// SymbolKind classifies a completion candidate.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolFunction
	SymbolClass
)

// Symbol is one completion candidate: a name visible at some cursor position,
// together with the offset where it is introduced.
type Symbol struct {
	Name     string     `json:"name"`
	Position int        `json:"position"`
	Kind     SymbolKind `json:"kind"`
}

// SymbolTable maps symbol names to their records. It is replaced wholesale on
// each successful parse, never partially merged.
type SymbolTable map[string]Symbol

// NavigationItem is one entry of the code-navigation index: a titled region
// of the document with a jump target.
type NavigationItem struct {
	Title     string     `json:"title"`
	Kind      SymbolKind `json:"kind"`
	StartLine int        `json:"startLine"`
	EndLine   int        `json:"endLine"`
	Target    int        `json:"target"`
}

// NavigationIndex is the set of navigation items, ordered by start line.
// Item line ranges are disjoint but need not cover the whole document.
type NavigationIndex []NavigationItem

// HighlightRanges is an ordered sequence of spans denoting occurrences of one
// symbol to underline. All spans in one value refer to the same symbol name.
type HighlightRanges []Span
