package server

import (
	"fmt"
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/liasis/editor/internal/analysis"
	"github.com/liasis/editor/internal/textindex"
)

// textDocumentCompletion serves the cached symbol table. Requesting
// completion marks the overlay as visible, which suppresses highlight
// triggers until the popup is gone.
func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	sess, ok := s.session(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", params.TextDocument.URI)
	}
	sess.SetOverlayVisible(true)

	snap := sess.Snapshot()
	items := make([]protocol.CompletionItem, 0, len(snap.Symbols))
	for _, sym := range snap.Symbols {
		kind := completionKind(sym.Kind)
		items = append(items, protocol.CompletionItem{
			Label: sym.Name,
			Kind:  &kind,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items, nil
}

// textDocumentDocumentSymbol serves the cached navigation index.
func (s *Server) textDocumentDocumentSymbol(
	context *glsp.Context,
	params *protocol.DocumentSymbolParams,
) (any, error) {
	sess, ok := s.session(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", params.TextDocument.URI)
	}

	text := sess.Buffer().Text()
	snap := sess.Snapshot()

	symbols := make([]protocol.DocumentSymbol, 0, len(snap.Navigation))
	for _, item := range snap.Navigation {
		startOffset := textindex.PositionForLineNumber(text, item.StartLine)
		endOffset := textindex.PositionForLineNumber(text, item.EndLine+1)
		if endOffset > startOffset && endOffset > 0 && endOffset <= len(text) && text[endOffset-1] == '\n' {
			endOffset--
		}

		itemRange := protocol.Range{
			Start: positionForOffset(text, startOffset),
			End:   positionForOffset(text, endOffset),
		}
		target := positionForOffset(text, item.Target)
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           item.Title,
			Kind:           symbolKind(item.Kind),
			Range:          itemRange,
			SelectionRange: protocol.Range{Start: target, End: target},
		})
	}
	return symbols, nil
}

// textDocumentDocumentHighlight reports the cached underline spans for the
// symbol at the cursor and feeds the cursor position into the debounced
// schedule. The response never waits on analysis; a fresh set arrives on a
// later request once the debounce fires.
func (s *Server) textDocumentDocumentHighlight(
	context *glsp.Context,
	params *protocol.DocumentHighlightParams,
) ([]protocol.DocumentHighlight, error) {
	sess, ok := s.session(params.TextDocument.URI)
	if !ok {
		return nil, fmt.Errorf("document not open: %s", params.TextDocument.URI)
	}
	sess.SetOverlayVisible(false)

	text := sess.Buffer().Text()
	sess.CursorMoved(offsetForPosition(text, params.Position))

	snap := sess.Snapshot()
	kind := protocol.DocumentHighlightKindText
	highlights := make([]protocol.DocumentHighlight, 0, len(snap.Highlights))
	for _, span := range snap.Highlights {
		if span.Start < 0 || span.End > len(text) || span.Start > span.End {
			continue
		}
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: protocol.Range{
				Start: positionForOffset(text, span.Start),
				End:   positionForOffset(text, span.End),
			},
			Kind: &kind,
		})
	}
	return highlights, nil
}

func completionKind(kind analysis.SymbolKind) protocol.CompletionItemKind {
	switch kind {
	case analysis.SymbolFunction:
		return protocol.CompletionItemKindFunction
	case analysis.SymbolClass:
		return protocol.CompletionItemKindClass
	default:
		return protocol.CompletionItemKindVariable
	}
}

func symbolKind(kind analysis.SymbolKind) protocol.SymbolKind {
	switch kind {
	case analysis.SymbolFunction:
		return protocol.SymbolKindFunction
	case analysis.SymbolClass:
		return protocol.SymbolKindClass
	default:
		return protocol.SymbolKindVariable
	}
}
