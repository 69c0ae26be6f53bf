package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/ingest"
	"github.com/usestring/fieldscope-mcp/internal/logging"
	"github.com/usestring/fieldscope-mcp/internal/mcp"
	"github.com/usestring/fieldscope-mcp/internal/mcp/tools"
	"github.com/usestring/fieldscope-mcp/internal/settings"
	"github.com/usestring/fieldscope-mcp/internal/workspace"
)

// Server is the dataset explorer MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	workspace  *workspace.Workspace
	deps       *Deps
	dataset    *DatasetSource
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin dataset tools.
//
// Configuration is loaded from the environment unless WithConfig is given.
// Use functional options to configure logging, preload a dataset, add
// custom tools, etc.
func NewServer(opts ...Option) (*Server, error) {
	// Build configuration from options
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.config == nil {
		cfg.config = config.Load() // Load defaults from environment
	}

	// Setup logging
	logCfg := logging.FromConfig(cfg.config)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	// Create infrastructure
	store, err := settings.Open(cfg.config.SettingsFile)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	for _, problem := range store.Problems() {
		slog.Warn("settings file rejected, using defaults",
			slog.String("path", store.Path()),
			slog.String("problem", problem),
		)
	}

	var wsOpts []workspace.Option
	if cfg.httpClient != nil {
		wsOpts = append(wsOpts, workspace.WithFetcher(ingest.NewFetcher(
			ingest.WithHTTPClient(cfg.httpClient),
			ingest.WithTimeout(cfg.config.FetchTimeout),
			ingest.WithMaxBytes(cfg.config.FetchMaxBytes),
		)))
	}
	ws, err := workspace.New(cfg.config, store, wsOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	// Create deps for internal tools and custom tools
	toolDeps := &tools.Deps{
		Workspace: ws,
		Config:    cfg.config,
	}

	// Create public deps (same values, different type for public API)
	deps := &Deps{
		Workspace: ws,
		Config:    cfg.config,
	}

	// Build internal server options
	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}

	// Add custom extension registration callbacks
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}

	// Add deferred tool registrations (tools that need Deps access)
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	// Create internal server
	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		ws.Close()
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &Server{
		internal:   internal,
		workspace:  ws,
		deps:       deps,
		dataset:    cfg.dataset,
		logCleanup: logCleanup,
	}, nil
}

// Run loads the startup dataset, if any, then serves MCP over stdio until
// the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.Preload(ctx)
	return s.internal.Run(ctx)
}

// Preload loads the dataset given with WithDataset. Failures are logged
// and recorded in the dataset status; the server keeps running empty.
func (s *Server) Preload(ctx context.Context) {
	if s.dataset == nil {
		return
	}
	status, err := s.workspace.Load(ctx, workspace.Request{
		Path:     s.dataset.Path,
		URL:      s.dataset.URL,
		Content:  s.dataset.Content,
		Format:   s.dataset.Format,
		DataPath: s.dataset.DataPath,
		Filter:   s.dataset.Filter,
	})
	if err != nil {
		slog.Warn("startup dataset failed to load", slog.String("error", err.Error()))
		return
	}
	slog.Info("startup dataset loaded",
		slog.String("source", status.Source),
		slog.Int("records", status.Records),
		slog.Int("keys", len(status.UniqueKeys)),
	)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	s.workspace.Close()
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server, e.g. for in-memory transports.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
