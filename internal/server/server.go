// Package server exposes the synchronization core to host text widgets over
// LSP. Document notifications drive the edit buffer; completion, document
// symbols and document highlights are served straight from the derived index
// cache, so a slow or failing analysis never blocks a response.
package server

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/liasis/editor/internal/cache/store"
	"github.com/liasis/editor/internal/config"
	"github.com/liasis/editor/internal/session"
)

const serverName = "liasis"

// Server holds one editing session per open document.
type Server struct {
	handler *protocol.Handler
	config  config.Config
	store   store.Store

	mu         sync.Mutex
	sessions   map[string]*session.Session
	noticeSent bool
}

// NewServer creates the LSP server with all handlers registered.
func NewServer() (*glspserver.Server, error) {
	s := &Server{
		config:   config.Default(),
		sessions: make(map[string]*session.Session),
	}
	s.handler = &protocol.Handler{
		Initialize:                    s.initialize,
		Initialized:                   s.initialized,
		Shutdown:                      s.shutdown,
		TextDocumentDidOpen:           s.textDocumentDidOpen,
		TextDocumentDidChange:         s.textDocumentDidChange,
		TextDocumentDidClose:          s.textDocumentDidClose,
		TextDocumentCompletion:        s.textDocumentCompletion,
		TextDocumentDocumentSymbol:    s.textDocumentDocumentSymbol,
		TextDocumentDocumentHighlight: s.textDocumentDocumentHighlight,
	}

	return glspserver.NewServer(s.handler, serverName, false), nil
}

func (s *Server) session(uri string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[uri]
	return sess, ok
}
