package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/liasis/editor/internal/analysis"
	"github.com/liasis/editor/internal/buffer"
	"github.com/liasis/editor/internal/cache/store"
)

// fakeEngine implements all four capabilities with scripted results.
type fakeEngine struct {
	mu               sync.Mutex
	parseErr         error
	parseGate        chan struct{}
	symbols          analysis.SymbolTable
	symbolsErr       error
	navigation       analysis.NavigationIndex
	navigationErr    error
	highlights       analysis.HighlightRanges
	highlightsErr    error
	parses           int
	highlightFetches int
	closed           bool
}

func (f *fakeEngine) ParseSource(ctx context.Context, text string) error {
	f.mu.Lock()
	gate := f.parseGate
	f.parses++
	err := f.parseErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeEngine) FetchSymbolTable(ctx context.Context, cursor int) (analysis.SymbolTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.symbols, f.symbolsErr
}

func (f *fakeEngine) FetchNavigationIndex(ctx context.Context) (analysis.NavigationIndex, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.navigation, f.navigationErr
}

func (f *fakeEngine) FetchHighlightRanges(ctx context.Context, cursor int) (analysis.HighlightRanges, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.highlightFetches++
	return f.highlights, f.highlightsErr
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeEngine) set(fn func(*fakeEngine)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeEngine) parseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.parses
}

func (f *fakeEngine) highlightCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.highlightFetches
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

const sampleText = "foo = 1\nbar = foo + 2\n"

func sampleEngine() *fakeEngine {
	return &fakeEngine{
		symbols: analysis.SymbolTable{
			"foo": {Name: "foo", Position: 0},
			"bar": {Name: "bar", Position: 8},
		},
		navigation: analysis.NavigationIndex{
			{Title: "foo", StartLine: 1, EndLine: 1, Target: 0},
		},
		highlights: analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 10, End: 13}},
	}
}

func newTestSession(t *testing.T, fe *fakeEngine, cfg Config) *Session {
	t.Helper()
	if cfg.Text == "" {
		cfg.Text = sampleText
	}
	if cfg.Doc == "" {
		cfg.Doc = "file:///test.py"
	}
	cfg.Engine = fe
	if cfg.ReparseInterval == 0 {
		cfg.ReparseInterval = time.Hour
	}
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 25 * time.Millisecond
	}
	s := New(cfg)
	t.Cleanup(s.Close)
	return s
}

func TestInitialCycleSeedsCache(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})

	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	snap := s.Snapshot()
	if len(snap.Symbols) != 2 || len(snap.Navigation) != 1 {
		t.Errorf("snapshot after initial cycle = %+v", snap)
	}
	if snap.SourceText != sampleText {
		t.Errorf("captured source = %q", snap.SourceText)
	}
}

func TestParseFailureLeavesCacheUntouched(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	fe.set(func(f *fakeEngine) {
		f.parseErr = &analysis.ParseError{Msg: "bad source"}
		f.symbols = nil
		f.navigation = nil
	})
	s.runIndexCycle(context.Background())

	if s.State() != StateStale {
		t.Errorf("state = %v, want stale", s.State())
	}
	snap := s.Snapshot()
	if len(snap.Symbols) != 2 || len(snap.Navigation) != 1 {
		t.Errorf("failed cycle touched the cache: %+v", snap)
	}
}

func TestFetchFailureSkipsOnlyThatField(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	fe.set(func(f *fakeEngine) {
		f.symbolsErr = &analysis.FetchError{View: "symbol table", Err: context.DeadlineExceeded}
		f.navigation = analysis.NavigationIndex{
			{Title: "foo", StartLine: 1, EndLine: 1},
			{Title: "baz", StartLine: 2, EndLine: 2},
		}
	})
	s.runIndexCycle(context.Background())

	if s.State() != StateCommitted {
		t.Errorf("state = %v, want committed (partial success still counts)", s.State())
	}
	snap := s.Snapshot()
	if len(snap.Symbols) != 2 {
		t.Errorf("failed fetch touched the symbol table: %v", snap.Symbols)
	}
	if len(snap.Navigation) != 2 {
		t.Errorf("sibling fetch did not commit: %v", snap.Navigation)
	}
}

func TestCapabilityFreeEngineIdles(t *testing.T) {
	s := New(Config{Doc: "file:///bare.py", Text: sampleText, Engine: struct{}{}, ReparseInterval: time.Hour})
	defer s.Close()

	s.runIndexCycle(context.Background())
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
	snap := s.Snapshot()
	if snap.Symbols != nil || snap.Navigation != nil {
		t.Errorf("capability-free engine produced data: %+v", snap)
	}
}

func TestRequestReparseCoalesces(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	gate := make(chan struct{})
	fe.set(func(f *fakeEngine) { f.parseGate = gate })

	before := fe.parseCount()
	s.RequestReparse()
	waitFor(t, "blocked parse", func() bool { return fe.parseCount() == before+1 })
	for i := 0; i < 5; i++ {
		s.RequestReparse()
	}
	fe.set(func(f *fakeEngine) { f.parseGate = nil })
	close(gate)

	waitFor(t, "cycle end", func() bool { return s.State() == StateCommitted })
	time.Sleep(20 * time.Millisecond)
	if got := fe.parseCount(); got != before+1 {
		t.Errorf("parse count = %d, want %d: triggers during Parsing must coalesce", got, before+1)
	}
}

func TestCursorInsideHighlightDoesNotRestartDebounce(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	s.cache.ReplaceHighlightRanges(analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 10, End: 13}})

	// Offset 1 is inside the first cached range: no new analysis warranted.
	s.CursorMoved(1)
	time.Sleep(80 * time.Millisecond)
	if got := fe.highlightCount(); got != 0 {
		t.Errorf("cursor inside a cached range fetched highlights %d times", got)
	}

	// Offset 5 is outside all cached ranges.
	s.CursorMoved(5)
	waitFor(t, "highlight fetch", func() bool { return fe.highlightCount() == 1 })
}

func TestCursorMovesCoalesceIntoOneFetch(t *testing.T) {
	fe := sampleEngine()
	fe.highlights = nil // keep every move outside the cached ranges
	s := newTestSession(t, fe, Config{DebounceInterval: 50 * time.Millisecond})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	for _, pos := range []int{4, 5, 6, 7} {
		s.CursorMoved(pos)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := fe.highlightCount(); got != 1 {
		t.Errorf("burst of cursor moves fetched highlights %d times, want 1", got)
	}
}

func TestOverlaySuppressesHighlightTrigger(t *testing.T) {
	fe := sampleEngine()
	fe.highlights = nil
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	s.SetOverlayVisible(true)
	s.CursorMoved(5)
	time.Sleep(80 * time.Millisecond)
	s.SetOverlayVisible(false)
	time.Sleep(80 * time.Millisecond)

	// Suppressed, not deferred: closing the overlay must not release the
	// dropped trigger.
	if got := fe.highlightCount(); got != 0 {
		t.Errorf("suppressed trigger fetched highlights %d times", got)
	}
}

func TestHighlightFallbackDuringParseFailure(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	fe.set(func(f *fakeEngine) { f.parseErr = &analysis.ParseError{Msg: "bad source"} })

	// Cursor inside "foo" on line 2 (offset 15): the word is in the last good
	// symbol table, so occurrence search provides the fallback.
	s.cursor.Store(15)
	s.runHighlightCycle(context.Background())

	snap := s.Snapshot()
	want := analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 14, End: 17}}
	if len(snap.Highlights) != 2 || snap.Highlights[0] != want[0] || snap.Highlights[1] != want[1] {
		t.Errorf("fallback highlights = %v, want %v", snap.Highlights, want)
	}
	if s.State() != StateStale {
		t.Errorf("state = %v, want stale", s.State())
	}
}

func TestHighlightFallbackUnknownWordKeepsOldRanges(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	prev := analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 14, End: 17}}
	s.cache.ReplaceHighlightRanges(prev)
	fe.set(func(f *fakeEngine) { f.parseErr = &analysis.ParseError{Msg: "bad source"} })

	// Offset 20 sits on "2", which is not in the symbol table.
	s.cursor.Store(20)
	s.runHighlightCycle(context.Background())

	snap := s.Snapshot()
	if len(snap.Highlights) != 2 || snap.Highlights[0] != prev[0] {
		t.Errorf("old ranges were not retained: %v", snap.Highlights)
	}
}

func TestAcceptHighlightsGuard(t *testing.T) {
	text := "foo = 1\nbar = foo + 2\n"
	mixed := analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 8, End: 11}}   // "foo", "bar"
	matched := analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 14, End: 17}} // "foo", "foo"
	single := analysis.HighlightRanges{{Start: 0, End: 3}}

	cases := []struct {
		name      string
		prev      analysis.HighlightRanges
		candidate analysis.HighlightRanges
		want      bool
	}{
		{"mismatched candidate rejected", matched, mixed, false},
		{"matched candidate accepted", mixed, matched, true},
		{"single prior range accepts anything", single, mixed, true},
		{"empty prior accepts anything", nil, mixed, true},
		{"empty candidate rejected", matched, nil, false},
		{"out of bounds rejected", matched, analysis.HighlightRanges{{Start: 0, End: 3}, {Start: 100, End: 103}}, false},
	}

	for _, c := range cases {
		if got := acceptHighlights(c.prev, c.candidate, text); got != c.want {
			t.Errorf("%s: acceptHighlights = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDidReplaceFeedsLineCountAndDocSync(t *testing.T) {
	fe := sampleEngine()
	var lineCounts []int
	var edits []string

	s := newTestSession(t, fe, Config{
		OnLineCount: func(n int) { lineCounts = append(lineCounts, n) },
		OnEdit:      func(span buffer.Span, text string) { edits = append(edits, text) },
	})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	b := s.Buffer()
	if err := b.Replace(buffer.Span{Start: len(sampleText), End: len(sampleText)}, "baz = 3\n"); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if len(lineCounts) != 1 || lineCounts[0] != 4 {
		t.Errorf("line count feed = %v, want [4]", lineCounts)
	}
	if len(edits) != 1 || edits[0] != "baz = 3\n" {
		t.Errorf("edit feed = %v", edits)
	}

	// Feeding the resulting text back must not re-notify.
	if b.SetText(sampleText + "baz = 3\n") {
		t.Error("idempotent SetText mutated the buffer")
	}
	if len(edits) != 1 {
		t.Errorf("idempotent SetText emitted an edit: %v", edits)
	}
}

func TestGotoTargetClamps(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})

	if got := s.GotoTarget(1, 1); got != 0 {
		t.Errorf("GotoTarget(1, 1) = %d", got)
	}
	if got := s.GotoTarget(2, 4); got != 11 {
		t.Errorf("GotoTarget(2, 4) = %d, want 11", got)
	}
	if got := s.GotoTarget(2, 400); got != 21 {
		t.Errorf("GotoTarget(2, 400) = %d, want end of line 2", got)
	}
	if got := s.GotoTarget(99, 1); got != len(sampleText) {
		t.Errorf("GotoTarget(99, 1) = %d, want buffer length", got)
	}
}

func TestStaleness(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	if s.IsStale() {
		t.Error("fresh commit reported stale")
	}
	s.Buffer().Replace(buffer.Span{Start: 0, End: 0}, "# comment\n")
	if !s.IsStale() {
		t.Error("buffer edit not reflected in staleness")
	}
	s.runIndexCycle(context.Background())
	if s.IsStale() {
		t.Error("reparse did not clear staleness")
	}
}

func TestPersistAndRestore(t *testing.T) {
	st := store.NewMemoryStore()
	fe := sampleEngine()

	s := newTestSession(t, fe, Config{Doc: "file:///persist.py", Store: st})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })
	s.Close()

	// A second session on the same document gets the persisted views even
	// though its engine can never parse.
	broken := &fakeEngine{parseErr: &analysis.ParseError{Msg: "always broken"}}
	s2 := newTestSession(t, broken, Config{Doc: "file:///persist.py", Store: st})

	snap := s2.Snapshot()
	if len(snap.Symbols) != 2 || len(snap.Navigation) != 1 {
		t.Errorf("restore did not seed the cache: %+v", snap)
	}
}

func TestCloseClosesEngine(t *testing.T) {
	fe := sampleEngine()
	s := newTestSession(t, fe, Config{})
	waitFor(t, "initial commit", func() bool { return s.State() == StateCommitted })

	s.Close()
	fe.mu.Lock()
	closed := fe.closed
	fe.mu.Unlock()
	if !closed {
		t.Error("session close did not close the engine")
	}
}
