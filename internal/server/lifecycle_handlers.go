package server

import (
	"log"
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/liasis/editor/internal/cache/store"
	"github.com/liasis/editor/internal/config"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg, err := config.Load(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	s.config = cfg
	log.Printf("Config: %+v", cfg)

	if cfg.Persist {
		stateDir, err := getXDGStateHome(serverName)
		if err != nil {
			log.Printf("Persistence disabled, no state directory: %v", err)
		} else {
			dbPath := filepath.Join(stateDir, "snapshots.db")
			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				log.Printf("Persistence disabled, store unusable: %v", err)
			} else {
				s.store = st
			}
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}

	version := "0.1.0"
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uri, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, uri)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("Failed to close snapshot store: %v", err)
		}
		s.store = nil
	}
	return nil
}

// capabilityNotice sends a single warning if the introspection engine offers
// no capabilities at all. Individual failed cycles stay silent.
func (s *Server) capabilityNotice(context *glsp.Context, capabilityCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if capabilityCount > 0 || s.noticeSent {
		return
	}
	s.noticeSent = true
	context.Notify("window/showMessage", protocol.ShowMessageParams{
		Type:    protocol.MessageTypeWarning,
		Message: "Source introspection is unavailable; completion, navigation and symbol underlining are disabled.",
	})
}
