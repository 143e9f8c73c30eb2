package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/liasis/editor/internal/analysis"
	"github.com/liasis/editor/internal/cache/store"
)

// runIndexCycle is the periodic cycle body: full parse, then independent
// symbol table and navigation index fetches. A parse failure leaves every
// cached field untouched; a failed fetch skips only its own field.
func (s *Session) runIndexCycle(ctx context.Context) error {
	s.state.Store(int32(StateParsing))
	text, version := s.buf.Snapshot()

	if err := s.port.ParseSource(ctx, text); err != nil {
		if errors.Is(err, analysis.ErrCapabilityUnavailable) {
			s.state.Store(int32(StateIdle))
			return nil
		}
		s.state.Store(int32(StateStale))
		log.Printf("Reparse of %s failed, keeping derived state: %v", s.doc, err)
		return nil
	}

	cursor := int(s.cursor.Load())
	if table, err := s.port.FetchSymbolTable(ctx, cursor); err == nil {
		s.cache.ReplaceSymbolTable(table, text, version)
	} else if !errors.Is(err, analysis.ErrCapabilityUnavailable) {
		log.Printf("Symbol table fetch for %s failed: %v", s.doc, err)
	}

	if index, err := s.port.FetchNavigationIndex(ctx); err == nil {
		s.cache.ReplaceNavigationIndex(index, text, version)
	} else if !errors.Is(err, analysis.ErrCapabilityUnavailable) {
		log.Printf("Navigation fetch for %s failed: %v", s.doc, err)
	}

	s.state.Store(int32(StateCommitted))
	s.persist()
	return nil
}

// runHighlightCycle is the debounced cycle body: refresh the underline spans
// for the symbol at the current cursor. When the parse fails, a fallback set
// is computed from the last good symbol table and accepted only if it passes
// the mismatched-fallback guard.
func (s *Session) runHighlightCycle(ctx context.Context) error {
	s.state.Store(int32(StateParsing))
	text, _ := s.buf.Snapshot()
	cursor := int(s.cursor.Load())

	if err := s.port.ParseSource(ctx, text); err != nil {
		if errors.Is(err, analysis.ErrCapabilityUnavailable) {
			s.state.Store(int32(StateIdle))
			return nil
		}
		prev := s.cache.CurrentSnapshot().Highlights
		candidate := s.fallbackHighlights(text, cursor)
		if acceptHighlights(prev, candidate, text) {
			s.cache.ReplaceHighlightRanges(candidate)
		}
		s.state.Store(int32(StateStale))
		return nil
	}

	ranges, err := s.port.FetchHighlightRanges(ctx, cursor)
	if err != nil {
		if !errors.Is(err, analysis.ErrCapabilityUnavailable) {
			log.Printf("Highlight fetch for %s failed: %v", s.doc, err)
		}
		s.state.Store(int32(StateCommitted))
		return nil
	}

	s.cache.ReplaceHighlightRanges(ranges)
	s.state.Store(int32(StateCommitted))
	return nil
}

// fallbackHighlights finds occurrences of the word under the cursor by plain
// text search, but only for words present in the last good symbol table; an
// unknown word yields nothing rather than underlines invented from a failed
// parse.
func (s *Session) fallbackHighlights(text string, cursor int) analysis.HighlightRanges {
	word := wordAt(text, cursor)
	if word == "" {
		return nil
	}
	if _, known := s.cache.CurrentSnapshot().Symbols[word]; !known {
		return nil
	}

	var ranges analysis.HighlightRanges
	for from := 0; ; {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			break
		}
		start := from + idx
		end := start + len(word)
		if wholeWord(text, start, end) {
			ranges = append(ranges, analysis.Span{Start: start, End: end})
		}
		from = end
	}
	return ranges
}

// acceptHighlights is the mismatched-fallback guard: once more than one range
// is cached, a replacement produced during a parse failure is accepted only
// if all its ranges lie within the buffer and spell the same text as its
// first range. Otherwise a stale parse could underline occurrences of two
// different symbols as if they were one.
func acceptHighlights(prev, candidate analysis.HighlightRanges, text string) bool {
	if len(candidate) == 0 {
		return false
	}
	if len(prev) <= 1 {
		return true
	}

	first := candidate[0]
	if !inBounds(first, text) {
		return false
	}
	firstText := text[first.Start:first.End]
	for _, r := range candidate[1:] {
		if !inBounds(r, text) || text[r.Start:r.End] != firstText {
			return false
		}
	}
	return true
}

func inBounds(r analysis.Span, text string) bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= len(text)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// wordAt returns the identifier-like word around the offset, or "".
func wordAt(text string, offset int) string {
	if offset < 0 || offset > len(text) {
		return ""
	}
	start := offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	end := offset
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	return text[start:end]
}

func wholeWord(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

// restore seeds the cache from the snapshot store so a freshly opened
// document has completion and navigation data before its first parse.
func (s *Session) restore() {
	if s.store == nil || s.doc == "" {
		return
	}
	rec, err := s.store.Load(s.doc)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("Snapshot restore for %s failed: %v", s.doc, err)
		}
		return
	}
	if rec.Symbols != nil {
		s.cache.ReplaceSymbolTable(rec.Symbols, "", 0)
	}
	if rec.Navigation != nil {
		s.cache.ReplaceNavigationIndex(rec.Navigation, "", 0)
	}
}

// persist writes the last good derived views to the snapshot store. An empty
// cache is never persisted; it would clobber a previously saved record.
func (s *Session) persist() {
	if s.store == nil || s.doc == "" {
		return
	}
	snap := s.cache.CurrentSnapshot()
	if snap.Symbols == nil && snap.Navigation == nil {
		return
	}
	err := s.store.Save(s.doc, store.Record{
		Symbols:    snap.Symbols,
		Navigation: snap.Navigation,
		SavedAt:    time.Now().Unix(),
	})
	if err != nil {
		log.Printf("Snapshot save for %s failed: %v", s.doc, err)
	}
}
