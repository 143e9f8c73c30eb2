package parser

import (
	"errors"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/liasis/editor/internal/analysis"
)

var errNoTree = errors.New("no parsed tree available; first parse a document")

type capturedNode struct {
	node    *sitter.Node
	capture string
}

// query runs the query against the current tree and returns all captures in
// document order. Callers hold e.mu.
func (e *Engine) query(queryString string) ([]capturedNode, error) {
	if e.tree == nil {
		return nil, errNoTree
	}

	q, err := sitter.NewQuery([]byte(queryString), lang)
	if err != nil {
		return nil, err
	}
	qc := sitter.NewQueryCursor()
	qc.Exec(q, e.tree.RootNode())

	var captures []capturedNode
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, e.source)

		for _, c := range m.Captures {
			captures = append(captures, capturedNode{
				node:    c.Node,
				capture: q.CaptureNameForId(c.Index),
			})
		}
	}
	return captures, nil
}

func kindForCapture(capture string) analysis.SymbolKind {
	switch capture {
	case "function":
		return analysis.SymbolFunction
	case "class":
		return analysis.SymbolClass
	default:
		return analysis.SymbolVariable
	}
}

// firstErrorOffset finds the start offset of the first error node in the
// tree, for diagnostics only.
func firstErrorOffset(node *sitter.Node) int {
	if node.IsError() || node.IsMissing() {
		return int(node.StartByte())
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() {
			continue
		}
		if off := firstErrorOffset(child); off >= 0 {
			return off
		}
	}
	if node.HasError() {
		return int(node.StartByte())
	}
	return -1
}
