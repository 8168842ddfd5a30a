// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"

	"github.com/studyhall-ai/studyhall/internal/llm"
	"github.com/studyhall-ai/studyhall/internal/mcp"
	entrypoint "github.com/studyhall-ai/studyhall/internal/platform/cmd"
)

// Config holds MCP command configuration.
type Config struct {
	DBPath     string `env:"STUDYHALL_MCP_DB_PATH" envDefault:"data/studyhall.db"`
	Transport  string `env:"STUDYHALL_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr   string `env:"STUDYHALL_MCP_HTTP_ADDR" envDefault:"localhost:8090"`
	AuthSecret string `env:"STUDYHALL_MCP_AUTH_SECRET"`
	AuthIssuer string `env:"STUDYHALL_MCP_AUTH_ISSUER" envDefault:"studyhall"`
	LLM        llm.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The shared SQLite database path")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(context.Context) error {
		return mcp.Run(ctx, mcp.Config{
			Transport:  mcp.Transport(cfg.Transport),
			HTTPAddr:   cfg.HTTPAddr,
			DBPath:     cfg.DBPath,
			LLM:        cfg.LLM,
			AuthSecret: cfg.AuthSecret,
			AuthIssuer: cfg.AuthIssuer,
		})
	})
}
