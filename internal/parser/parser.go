// Package parser implements the analysis contract over tree-sitter for
// Python source. It is the concrete introspection engine behind the
// capability-probed port; hosts with a different engine plug in at the same
// contract.
package parser

import (
	"context"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/liasis/editor/internal/analysis"
)

var lang = python.GetLanguage()

const symbolQuery = `
(function_definition name: (identifier) @function)
(class_definition name: (identifier) @class)
(assignment left: (identifier) @variable)
`

const navigationQuery = `
(function_definition name: (identifier) @name) @item
(class_definition name: (identifier) @name) @item
`

const identifierQuery = `(identifier) @id`

// Engine wraps a tree-sitter parser instance along with the tree and source
// of the last successful parse. A failed parse leaves both untouched.
type Engine struct {
	mu     sync.Mutex
	parser *sitter.Parser
	tree   *sitter.Tree
	source []byte
}

// NewEngine creates an Engine with no parsed tree.
func NewEngine() *Engine {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &Engine{parser: p}
}

// ParseSource reparses the full text. Source with syntax errors yields a
// ParseError and the previous tree is kept, so fetches keep answering from
// the last good parse.
func (e *Engine) ParseSource(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tree, err := e.parser.ParseCtx(ctx, nil, []byte(text))
	if err != nil {
		return &analysis.ParseError{Msg: err.Error()}
	}
	if root := tree.RootNode(); root.HasError() {
		pos := firstErrorOffset(root)
		tree.Close()
		return &analysis.ParseError{Position: pos, Msg: "source contains syntax errors"}
	}

	if e.tree != nil {
		e.tree.Close()
	}
	e.tree = tree
	e.source = []byte(text)
	return nil
}

// FetchSymbolTable returns every name introduced by an assignment, function
// or class definition. The cursor is accepted for the port contract; the
// table is position-independent and filtered by the consumer.
func (e *Engine) FetchSymbolTable(ctx context.Context, cursor int) (analysis.SymbolTable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	captures, err := e.query(symbolQuery)
	if err != nil {
		return nil, &analysis.FetchError{View: "symbol table", Err: err}
	}

	table := make(analysis.SymbolTable)
	for _, c := range captures {
		name := c.node.Content(e.source)
		if _, seen := table[name]; seen {
			continue
		}
		table[name] = analysis.Symbol{
			Name:     name,
			Position: int(c.node.StartByte()),
			Kind:     kindForCapture(c.capture),
		}
	}
	return table, nil
}

// FetchNavigationIndex returns one item per module-level function or class
// definition, ordered by start line. Nested definitions are skipped to keep
// item line ranges disjoint.
func (e *Engine) FetchNavigationIndex(ctx context.Context) (analysis.NavigationIndex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tree == nil {
		return nil, &analysis.FetchError{View: "navigation index", Err: errNoTree}
	}

	q, err := sitter.NewQuery([]byte(navigationQuery), lang)
	if err != nil {
		return nil, &analysis.FetchError{View: "navigation index", Err: err}
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, e.tree.RootNode())

	var index analysis.NavigationIndex
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, e.source)

		var item, name *sitter.Node
		for _, c := range m.Captures {
			switch q.CaptureNameForId(c.Index) {
			case "item":
				item = c.Node
			case "name":
				name = c.Node
			}
		}
		if item == nil || name == nil {
			continue
		}
		if parent := item.Parent(); parent == nil || parent.Type() != "module" {
			continue
		}

		kind := analysis.SymbolFunction
		if item.Type() == "class_definition" {
			kind = analysis.SymbolClass
		}
		index = append(index, analysis.NavigationItem{
			Title:     name.Content(e.source),
			Kind:      kind,
			StartLine: int(item.StartPoint().Row) + 1,
			EndLine:   int(item.EndPoint().Row) + 1,
			Target:    int(name.StartByte()),
		})
	}

	sort.Slice(index, func(i, j int) bool {
		return index[i].StartLine < index[j].StartLine
	})
	return index, nil
}

// FetchHighlightRanges returns the spans of every occurrence of the
// identifier at the cursor, in document order. A cursor not on an identifier
// yields an empty set.
func (e *Engine) FetchHighlightRanges(ctx context.Context, cursor int) (analysis.HighlightRanges, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	captures, err := e.query(identifierQuery)
	if err != nil {
		return nil, &analysis.FetchError{View: "highlight ranges", Err: err}
	}

	var target string
	for _, c := range captures {
		if cursor >= int(c.node.StartByte()) && cursor <= int(c.node.EndByte()) {
			target = c.node.Content(e.source)
			break
		}
	}
	if target == "" {
		return analysis.HighlightRanges{}, nil
	}

	var ranges analysis.HighlightRanges
	for _, c := range captures {
		if c.node.Content(e.source) == target {
			ranges = append(ranges, analysis.Span{
				Start: int(c.node.StartByte()),
				End:   int(c.node.EndByte()),
			})
		}
	}
	return ranges, nil
}

// Close frees the tree-sitter resources held by the Engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tree != nil {
		e.tree.Close()
		e.tree = nil
	}
	if e.parser != nil {
		e.parser.Close()
		e.parser = nil
	}
	return nil
}
