package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/fieldscope-mcp/pkg/mcpsrv"
)

func main() {
	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// An optional argument names a dataset (path or http(s) URL) to load
	// before serving.
	var opts []mcpsrv.Option
	if len(os.Args) > 1 && os.Args[1] != "" {
		opts = append(opts, mcpsrv.WithDatasetSource(os.Args[1]))
	}

	// Create MCP server with all builtin tools
	// Configuration is loaded from environment variables:
	// - LOG_LEVEL: debug, info, warn, error (default: info)
	// - LOG_FILE: path to log file (default: stderr only)
	// - SETTINGS_FILE: where display settings are persisted
	// - etc. (see internal/config for all options)
	server, err := mcpsrv.NewServer(opts...)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	// Run the server with stdio transport
	slog.Info("starting fieldscope MCP server on stdio")
	if err := server.Run(ctx); err != nil && err != context.Canceled {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
