// Package buffer holds the live text content of one document and notifies a
// single registered listener around every mutation. It decouples the analysis
// pipeline from whatever widget hosts the text.
package buffer

import (
	"fmt"
	"sync"

	"github.com/liasis/editor/internal/textindex"
)

// Span is a half-open range [Start, End) of absolute offsets into the buffer.
type Span struct {
	Start int
	End   int
}

// Len returns the number of characters covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Listener receives ordered notifications around every mutation.
// WillReplace fires before the change is applied, DidReplace after the buffer
// holds the new text. Listeners must not mutate the buffer from a callback.
type Listener interface {
	WillReplace(span Span, text string)
	DidReplace(span Span, text string)
}

// Buffer is the mutable document text plus a monotonically increasing edit
// counter. It is owned by one editing session; the analysis path only ever
// sees immutable snapshots.
type Buffer struct {
	mu       sync.Mutex
	text     string
	version  uint64
	listener Listener
}

// New creates a Buffer with the given initial text at version zero.
func New(text string) *Buffer {
	return &Buffer{text: text}
}

// SetListener registers the single mutation listener, replacing any previous
// one.
func (b *Buffer) SetListener(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = l
}

// Text returns the current document text.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Len returns the current document length.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.text)
}

// Version returns the edit counter. It increases on every successful mutation
// and is used to detect staleness of in-flight analysis.
func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Snapshot returns the current text together with its edit counter.
func (b *Buffer) Snapshot() (string, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.version
}

// LineCount returns the number of lines in the current text.
func (b *Buffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return textindex.LineCount(b.text)
}

// Replace deletes the span and inserts text in its place. The listener's
// WillReplace fires before the mutation, DidReplace after it; both are
// delivered synchronously on the caller's goroutine. Notifications run
// outside the buffer lock so the listener may read the buffer; only the
// owning session may mutate, so no second Replace can interleave.
func (b *Buffer) Replace(span Span, text string) error {
	b.mu.Lock()
	if span.Start < 0 || span.End < span.Start || span.End > len(b.text) {
		err := fmt.Errorf("invalid span [%d, %d) for buffer of length %d", span.Start, span.End, len(b.text))
		b.mu.Unlock()
		return err
	}
	listener := b.listener
	b.mu.Unlock()

	if listener != nil {
		listener.WillReplace(span, text)
	}

	b.mu.Lock()
	b.text = b.text[:span.Start] + text + b.text[span.End:]
	b.version++
	b.mu.Unlock()

	if listener != nil {
		listener.DidReplace(span, text)
	}
	return nil
}

// SetText replaces the whole document. If the buffer already holds text equal
// to the target, the mutation is skipped entirely and no notifications fire;
// this guards against notification storms from document model feedback loops.
// It reports whether a mutation took place.
func (b *Buffer) SetText(text string) bool {
	b.mu.Lock()
	if b.text == text {
		b.mu.Unlock()
		return false
	}
	span := Span{Start: 0, End: len(b.text)}
	b.mu.Unlock()

	if err := b.Replace(span, text); err != nil {
		return false
	}
	return true
}
