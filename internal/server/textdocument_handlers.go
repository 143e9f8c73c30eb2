package server

import (
	"fmt"
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/liasis/editor/internal/buffer"
	"github.com/liasis/editor/internal/parser"
	"github.com/liasis/editor/internal/session"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	if _, exists := s.sessions[uri]; exists {
		s.mu.Unlock()
		return fmt.Errorf("document already open: %s", uri)
	}
	s.mu.Unlock()

	sess := session.New(session.Config{
		Doc:              uri,
		Text:             params.TextDocument.Text,
		Engine:           parser.NewEngine(),
		Store:            s.store,
		ReparseInterval:  s.config.ReparseInterval(),
		DebounceInterval: s.config.DebounceInterval(),
	})

	s.mu.Lock()
	s.sessions[uri] = sess
	s.mu.Unlock()

	s.capabilityNotice(context, sess.Port().CapabilityCount())
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	uri := params.TextDocument.TextDocumentIdentifier.URI
	sess, ok := s.session(uri)
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}
	sess.SetOverlayVisible(false)

	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			text := sess.Buffer().Text()
			span := buffer.Span{
				Start: offsetForPosition(text, change.Range.Start),
				End:   offsetForPosition(text, change.Range.End),
			}
			if err := sess.Buffer().Replace(span, change.Text); err != nil {
				return fmt.Errorf("unexpected error during edit: %w", err)
			}
		case protocol.TextDocumentContentChangeEventWhole:
			sess.Buffer().SetText(change.Text)
		default:
			return fmt.Errorf("unexpected change event type %T", raw)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	sess, ok := s.sessions[uri]
	delete(s.sessions, uri)
	s.mu.Unlock()

	if !ok {
		log.Printf("Close for unknown document %s", uri)
		return nil
	}
	sess.Close()
	return nil
}
