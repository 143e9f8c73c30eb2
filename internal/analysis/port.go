package analysis

import "context"

// SourceParser reparses the full current text. On failure no other capability
// is to be trusted for the cycle.
type SourceParser interface {
	ParseSource(ctx context.Context, text string) error
}

// SymbolTableSource computes the completion candidates visible at a cursor
// position.
type SymbolTableSource interface {
	FetchSymbolTable(ctx context.Context, cursor int) (SymbolTable, error)
}

// NavigationSource computes the code-navigation index for the parsed text.
type NavigationSource interface {
	FetchNavigationIndex(ctx context.Context) (NavigationIndex, error)
}

// HighlightSource computes the occurrence spans of the symbol at a cursor
// position.
type HighlightSource interface {
	FetchHighlightRanges(ctx context.Context, cursor int) (HighlightRanges, error)
}

// Port is the resolved contract to one introspection engine. Each capability
// is independently optional; the set is probed once when the port is created,
// so no dynamic dispatch happens per call. Calls to an absent capability
// return ErrCapabilityUnavailable.
type Port struct {
	parser     SourceParser
	symbols    SymbolTableSource
	navigation NavigationSource
	highlights HighlightSource
}

// NewPort probes the engine for each optional capability and returns the
// resolved port. A nil or capability-free engine yields a port whose every
// call degrades to ErrCapabilityUnavailable.
func NewPort(engine any) *Port {
	p := &Port{}
	if v, ok := engine.(SourceParser); ok {
		p.parser = v
	}
	if v, ok := engine.(SymbolTableSource); ok {
		p.symbols = v
	}
	if v, ok := engine.(NavigationSource); ok {
		p.navigation = v
	}
	if v, ok := engine.(HighlightSource); ok {
		p.highlights = v
	}
	return p
}

// CanParse reports whether the engine can reparse source text.
func (p *Port) CanParse() bool { return p.parser != nil }

// CanFetchSymbols reports whether the engine can produce a symbol table.
func (p *Port) CanFetchSymbols() bool { return p.symbols != nil }

// CanFetchNavigation reports whether the engine can produce a navigation
// index.
func (p *Port) CanFetchNavigation() bool { return p.navigation != nil }

// CanFetchHighlights reports whether the engine can produce highlight ranges.
func (p *Port) CanFetchHighlights() bool { return p.highlights != nil }

// CapabilityCount returns how many capabilities the engine offers.
func (p *Port) CapabilityCount() int {
	n := 0
	for _, ok := range []bool{p.CanParse(), p.CanFetchSymbols(), p.CanFetchNavigation(), p.CanFetchHighlights()} {
		if ok {
			n++
		}
	}
	return n
}

func (p *Port) ParseSource(ctx context.Context, text string) error {
	if p.parser == nil {
		return ErrCapabilityUnavailable
	}
	return p.parser.ParseSource(ctx, text)
}

func (p *Port) FetchSymbolTable(ctx context.Context, cursor int) (SymbolTable, error) {
	if p.symbols == nil {
		return nil, ErrCapabilityUnavailable
	}
	return p.symbols.FetchSymbolTable(ctx, cursor)
}

func (p *Port) FetchNavigationIndex(ctx context.Context) (NavigationIndex, error) {
	if p.navigation == nil {
		return nil, ErrCapabilityUnavailable
	}
	return p.navigation.FetchNavigationIndex(ctx)
}

func (p *Port) FetchHighlightRanges(ctx context.Context, cursor int) (HighlightRanges, error) {
	if p.highlights == nil {
		return nil, ErrCapabilityUnavailable
	}
	return p.highlights.FetchHighlightRanges(ctx, cursor)
}
