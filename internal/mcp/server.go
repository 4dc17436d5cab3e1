package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/seg-flt/hdrscan/internal/storage"
)

// Server exposes an indexed chunk database over the Model Context Protocol
// on stdio, so editor agents can search header chunks without shelling out.
type Server struct {
	store *storage.ChunkStore
	mcp   *server.MCPServer
}

// NewServer opens the chunk database at dbPath and registers the
// search_chunks tool.
func NewServer(dbPath string) (*Server, error) {
	store, err := storage.NewChunkStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk store: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"hdrscan-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	AddSearchChunksTool(mcpServer, store)

	return &Server{store: store, mcp: mcpServer}, nil
}

// Serve runs the MCP server on stdio and blocks until the context is
// canceled, a shutdown signal arrives, or the transport fails.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the chunk store.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
