// Package session ties one document's edit buffer to the analysis pipeline.
// It owns the reparse schedules, decides when a cycle is triggered, and is
// the only writer of the derived index cache.
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/liasis/editor/internal/analysis"
	"github.com/liasis/editor/internal/buffer"
	"github.com/liasis/editor/internal/cache"
	"github.com/liasis/editor/internal/cache/store"
	"github.com/liasis/editor/internal/scheduler"
	"github.com/liasis/editor/internal/textindex"
)

// State is the phase of the current analysis cycle.
type State int32

const (
	StateIdle State = iota
	StateParsing
	StateCommitted
	StateStale
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateCommitted:
		return "committed"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Config assembles one editing session.
type Config struct {
	// Doc identifies the document in logs and the snapshot store.
	Doc string
	// Text is the initial document content.
	Text string
	// Engine is the introspection engine; its capabilities are probed once
	// here. May be nil.
	Engine any
	// Store optionally persists the last good derived views per document.
	Store store.Store

	ReparseInterval  time.Duration
	DebounceInterval time.Duration

	// OnLineCount, if set, receives the buffer's line count after every
	// mutation (status bar feed).
	OnLineCount func(int)
	// OnEdit, if set, receives an edit description whenever the buffer text
	// diverges from the external document model's last known text.
	OnEdit func(span buffer.Span, text string)
}

const (
	defaultReparseInterval  = 10 * time.Second
	defaultDebounceInterval = 250 * time.Millisecond
)

// Session is the synchronization policy for one document.
type Session struct {
	doc      string
	buf      *buffer.Buffer
	port     *analysis.Port
	cache    *cache.DerivedCache
	sched    *scheduler.Scheduler
	debounce *scheduler.Debouncer
	store    store.Store

	state       atomic.Int32
	parseQueued atomic.Bool
	overlay     atomic.Bool
	cursor      atomic.Int64

	onLineCount func(int)
	onEdit      func(span buffer.Span, text string)

	syncMu     sync.Mutex
	syncedText string

	engineCloser io.Closer
	closeOnce    sync.Once
}

// New builds a session, restores any persisted derived views, registers the
// session as the buffer's listener and starts both schedules. The first index
// refresh is requested immediately.
func New(cfg Config) *Session {
	if cfg.ReparseInterval <= 0 {
		cfg.ReparseInterval = defaultReparseInterval
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = defaultDebounceInterval
	}

	s := &Session{
		doc:         cfg.Doc,
		buf:         buffer.New(cfg.Text),
		port:        analysis.NewPort(cfg.Engine),
		cache:       cache.NewDerivedCache(),
		store:       cfg.Store,
		onLineCount: cfg.OnLineCount,
		onEdit:      cfg.OnEdit,
		syncedText:  cfg.Text,
	}
	if closer, ok := cfg.Engine.(io.Closer); ok {
		s.engineCloser = closer
	}

	s.restore()

	s.sched = scheduler.NewScheduler(16)
	s.sched.RunScheduler()
	s.sched.SchedulePeriodicTask(cfg.ReparseInterval, scheduler.Task{
		Name:    "periodic index refresh",
		Execute: func() error { s.RequestReparse(); return nil },
	})

	s.debounce = scheduler.NewDebouncer(cfg.DebounceInterval, func() {
		s.sched.Schedule(scheduler.Task{
			Name:    "highlight refresh",
			Execute: func() error { return s.runHighlightCycle(context.Background()) },
		})
	})
	s.debounce.SetSuppress(s.overlay.Load)

	s.buf.SetListener(s)
	s.RequestReparse()
	return s
}

// Buffer returns the session's edit buffer. Only the host editing path may
// mutate it.
func (s *Session) Buffer() *buffer.Buffer {
	return s.buf
}

// Port returns the resolved analysis port.
func (s *Session) Port() *analysis.Port {
	return s.port
}

// State returns the phase of the most recent analysis cycle.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Snapshot returns the current derived views.
func (s *Session) Snapshot() cache.Snapshot {
	return s.cache.CurrentSnapshot()
}

// IsStale reports whether the cached derived views lag the buffer content.
func (s *Session) IsStale() bool {
	return s.cache.CurrentSnapshot().Version != s.buf.Version()
}

// WillReplace is the buffer's pre-mutation notification. It fires before any
// line bookkeeping happens.
func (s *Session) WillReplace(span buffer.Span, text string) {}

// DidReplace updates the line-count feed and emits an edit description to the
// document model layer when the text has diverged from it.
func (s *Session) DidReplace(span buffer.Span, text string) {
	if s.onLineCount != nil {
		s.onLineCount(s.buf.LineCount())
	}

	s.syncMu.Lock()
	defer s.syncMu.Unlock()
	current := s.buf.Text()
	if s.onEdit != nil && current != s.syncedText {
		s.onEdit(span, text)
	}
	s.syncedText = current
}

// CursorMoved feeds a selection change into the debounced schedule. A cursor
// still inside one of the cached highlight ranges does not restart the timer;
// the user has not left the previously identified symbol.
func (s *Session) CursorMoved(position int) {
	s.cursor.Store(int64(position))
	if s.cursorInsideHighlight(position) {
		return
	}
	s.debounce.Trigger()
}

func (s *Session) cursorInsideHighlight(position int) bool {
	for _, r := range s.cache.CurrentSnapshot().Highlights {
		if r.Contains(position) {
			return true
		}
	}
	return false
}

// SetOverlayVisible marks a transient UI overlay (such as a completion
// popup) as visible. While it is, highlight triggers are suppressed outright.
func (s *Session) SetOverlayVisible(visible bool) {
	s.overlay.Store(visible)
}

// GotoTarget resolves a 1-based (line, column) goto request to a clamped
// absolute offset.
func (s *Session) GotoTarget(lineNumber, column int) int {
	text, _ := s.buf.Snapshot()
	return textindex.OffsetForLineColumn(text, lineNumber, column)
}

// RequestReparse queues an index refresh. Requests arriving while one is
// already queued or parsing are coalesced into it.
func (s *Session) RequestReparse() {
	if !s.parseQueued.CompareAndSwap(false, true) {
		return
	}
	ok := s.sched.Schedule(scheduler.Task{
		Name: "index refresh",
		Execute: func() error {
			defer s.parseQueued.Store(false)
			return s.runIndexCycle(context.Background())
		},
	})
	if !ok {
		s.parseQueued.Store(false)
	}
}

// Close cancels both schedules, discards any in-flight cycle's result and
// persists the last good derived views.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.debounce.Stop()
		s.sched.StopScheduler()
		s.persist()
		if s.engineCloser != nil {
			s.engineCloser.Close()
		}
	})
}
