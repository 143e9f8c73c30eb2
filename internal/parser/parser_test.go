package parser_test

import (
	"context"
	"strings"
	"testing"

	"github.com/liasis/editor/internal/analysis"
	"github.com/liasis/editor/internal/parser"
)

const source = `foo = 1

def main():
    return foo

class Widget:
    def render(self):
        return foo
`

func parsedEngine(t *testing.T, text string) *parser.Engine {
	t.Helper()
	e := parser.NewEngine()
	t.Cleanup(func() { e.Close() })
	if err := e.ParseSource(context.Background(), text); err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	return e
}

func TestParseSourceRejectsBrokenSyntax(t *testing.T) {
	e := parser.NewEngine()
	defer e.Close()

	err := e.ParseSource(context.Background(), "def (:\n")
	if err == nil {
		t.Fatal("broken source parsed without error")
	}
	if !analysis.IsParseError(err) {
		t.Fatalf("error = %v, want a ParseError", err)
	}
}

func TestFetchBeforeParseFails(t *testing.T) {
	e := parser.NewEngine()
	defer e.Close()

	if _, err := e.FetchSymbolTable(context.Background(), 0); err == nil {
		t.Error("FetchSymbolTable succeeded without a parsed tree")
	}
	if _, err := e.FetchNavigationIndex(context.Background()); err == nil {
		t.Error("FetchNavigationIndex succeeded without a parsed tree")
	}
}

func TestFetchSymbolTable(t *testing.T) {
	e := parsedEngine(t, source)

	table, err := e.FetchSymbolTable(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchSymbolTable failed: %v", err)
	}

	want := map[string]analysis.SymbolKind{
		"foo":    analysis.SymbolVariable,
		"main":   analysis.SymbolFunction,
		"Widget": analysis.SymbolClass,
	}
	for name, kind := range want {
		sym, ok := table[name]
		if !ok {
			t.Errorf("symbol %q missing from table %v", name, table)
			continue
		}
		if sym.Kind != kind {
			t.Errorf("symbol %q kind = %v, want %v", name, sym.Kind, kind)
		}
	}
	if table["foo"].Position != 0 {
		t.Errorf("foo position = %d, want 0", table["foo"].Position)
	}
}

func TestFetchNavigationIndex(t *testing.T) {
	e := parsedEngine(t, source)

	index, err := e.FetchNavigationIndex(context.Background())
	if err != nil {
		t.Fatalf("FetchNavigationIndex failed: %v", err)
	}

	if len(index) != 2 {
		t.Fatalf("index = %v, want the two module-level definitions", index)
	}
	if index[0].Title != "main" || index[0].Kind != analysis.SymbolFunction {
		t.Errorf("first item = %+v", index[0])
	}
	if index[1].Title != "Widget" || index[1].Kind != analysis.SymbolClass {
		t.Errorf("second item = %+v", index[1])
	}
	if index[0].StartLine != 3 {
		t.Errorf("main starts at line %d, want 3", index[0].StartLine)
	}
	if index[0].EndLine >= index[1].StartLine {
		t.Errorf("item ranges overlap: %+v", index)
	}
}

func TestFetchHighlightRanges(t *testing.T) {
	text := "foo = 1\nbar = foo + 2\n"
	e := parsedEngine(t, text)

	cursor := strings.Index(text, "foo + 2") + 1
	ranges, err := e.FetchHighlightRanges(context.Background(), cursor)
	if err != nil {
		t.Fatalf("FetchHighlightRanges failed: %v", err)
	}

	if len(ranges) != 2 {
		t.Fatalf("ranges = %v, want both foo occurrences", ranges)
	}
	for _, r := range ranges {
		if text[r.Start:r.End] != "foo" {
			t.Errorf("range %v spells %q", r, text[r.Start:r.End])
		}
	}
	if ranges[0].Start >= ranges[1].Start {
		t.Errorf("ranges out of document order: %v", ranges)
	}
}

func TestFetchHighlightRangesOffSymbol(t *testing.T) {
	text := "foo = 1\n"
	e := parsedEngine(t, text)

	ranges, err := e.FetchHighlightRanges(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchHighlightRanges failed: %v", err)
	}
	if len(ranges) != 0 {
		t.Errorf("cursor on '=' produced ranges %v", ranges)
	}
}

// A failed reparse keeps answering from the last good tree.
func TestFailedParseKeepsPreviousTree(t *testing.T) {
	e := parsedEngine(t, source)

	if err := e.ParseSource(context.Background(), "class (:\n"); err == nil {
		t.Fatal("broken source parsed without error")
	}

	table, err := e.FetchSymbolTable(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchSymbolTable after failed parse: %v", err)
	}
	if _, ok := table["main"]; !ok {
		t.Errorf("previous parse lost after failure: %v", table)
	}
}
