// Package mcp exposes Studyhall features as MCP tools over stdio or HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/mcp/domain"
	"github.com/studyhall-ai/studyhall/internal/services/memory"
	"github.com/studyhall-ai/studyhall/internal/services/notes"
	"github.com/studyhall-ai/studyhall/internal/services/quiz"
	"github.com/studyhall-ai/studyhall/internal/storage/sqlite"
)

const (
	serverName    = "studyhall"
	serverVersion = "0.1.0"
)

// Transport selects how the MCP server is exposed.
type Transport string

const (
	// TransportStdio serves MCP over stdin/stdout for local clients.
	TransportStdio Transport = "stdio"
	// TransportHTTP serves MCP over authenticated HTTP.
	TransportHTTP Transport = "http"
)

// Config controls MCP server startup.
type Config struct {
	Transport Transport
	HTTPAddr  string
	DBPath    string
	LLM       llm.Config

	// AuthSecret signs and verifies HTTP bearer tokens. Required for the
	// HTTP transport, unused for stdio.
	AuthSecret string
	AuthIssuer string
}

// Server wires the feature services behind an MCP tool surface.
type Server struct {
	mcpServer *mcp.Server
	store     *sqlite.Store
}

func newServer(store *sqlite.Store, client llm.Client) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	notesSvc := notes.New(store, client)
	quizSvc := quiz.New(store, client)
	memorySvc := memory.New(store)

	mcp.AddTool(mcpServer, domain.NoteSearchTool(), domain.NoteSearchHandler(notesSvc))
	mcp.AddTool(mcpServer, domain.NoteCreateTool(), domain.NoteCreateHandler(notesSvc))
	mcp.AddTool(mcpServer, domain.QuizGenerateTool(), domain.QuizGenerateHandler(quizSvc))
	mcp.AddTool(mcpServer, domain.DueReviewsTool(), domain.DueReviewsHandler(memorySvc))

	return &Server{mcpServer: mcpServer, store: store}, nil
}

func (cfg Config) validate() error {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return fmt.Errorf("db path is required")
	}
	if cfg.Transport == TransportHTTP && strings.TrimSpace(cfg.AuthSecret) == "" {
		return fmt.Errorf("auth secret is required for the http transport")
	}
	return nil
}

// Run starts the MCP server and blocks until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close sqlite store: %v", closeErr)
		}
	}()

	client, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("build llm client: %w", err)
	}

	server, err := newServer(store, client)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case TransportStdio:
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		return server.serveHTTP(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return err
}
