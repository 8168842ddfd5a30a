package mcp

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultHTTPAddr = "localhost:8090"

	httpReadHeaderTimeout = 10 * time.Second
	httpShutdownTimeout   = 35 * time.Second
)

// serveHTTP exposes the MCP server over the streamable HTTP transport behind
// bearer auth, shutting down gracefully on context cancellation.
func (s *Server) serveHTTP(ctx context.Context, cfg Config) error {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = defaultHTTPAddr
	}

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           requireBearer(cfg.AuthSecret, cfg.AuthIssuer, handler),
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	log.Printf("mcp http transport listening on %s", addr)

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-serveErr
		return nil
	}
}
