package mcp

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/mcp/prompts"
	"github.com/usestring/fieldscope-mcp/internal/mcp/tools"
)

// Server identity reported during initialization.
const (
	Name    = "fieldscope-mcp"
	Version = "0.3.0"
)

const instructions = "Explore one JSON or CSV dataset at a time. " +
	"Load it with fieldscope_dataset_load, inspect keys with fieldscope_dataset_describe, " +
	"then search flattened fields with fieldscope_dataset_search or drive the interactive box with fieldscope_dataset_type. " +
	"Record ids complete on fieldscope://record/{id}."

// Server wraps the MCP server with the dataset explorer's tools, resources
// and prompts.
type Server struct {
	mcpServer *sdkmcp.Server
	deps      *tools.Deps

	// Extension toggles
	enableBuiltinTools   bool
	enableBuiltinPrompts bool

	// Custom extension registration callbacks
	customRegistrations []func(*sdkmcp.Server)
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithBuiltinTools enables the builtin dataset tools and resources.
func WithBuiltinTools() ServerOption {
	return func(s *Server) {
		s.enableBuiltinTools = true
	}
}

// WithBuiltinPrompts enables the builtin prompts.
func WithBuiltinPrompts() ServerOption {
	return func(s *Server) {
		s.enableBuiltinPrompts = true
	}
}

// WithCustomRegistration adds a custom registration callback.
// The callback receives the underlying MCP server and can register
// tools, prompts, or resources directly.
func WithCustomRegistration(fn func(*sdkmcp.Server)) ServerOption {
	return func(s *Server) {
		s.customRegistrations = append(s.customRegistrations, fn)
	}
}

// NewServer creates a new MCP server with the provided dependencies and options.
func NewServer(deps *tools.Deps, opts ...ServerOption) (*Server, error) {
	if deps == nil {
		return nil, fmt.Errorf("deps is required")
	}

	s := &Server{deps: deps}

	// Apply options
	for _, opt := range opts {
		opt(s)
	}

	// Create MCP server
	sdkOpts := &sdkmcp.ServerOptions{Instructions: instructions}
	if s.enableBuiltinTools {
		sdkOpts.CompletionHandler = s.handleComplete
	}
	s.mcpServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    Name,
			Version: Version,
		},
		sdkOpts,
	)

	// Register logging middleware
	s.mcpServer.AddReceivingMiddleware(LoggingMiddleware())

	// Create prompt config
	promptCfg := &prompts.Config{
		Status:   deps.Workspace.Status,
		PageSize: deps.Config.PageSize,
	}

	// Register builtin capabilities if enabled
	if s.enableBuiltinTools {
		tools.Register(s.mcpServer, deps)
		s.registerResources()
	}
	if s.enableBuiltinPrompts {
		prompts.Register(s.mcpServer, promptCfg)
	}

	// Execute custom registration callbacks
	for _, fn := range s.customRegistrations {
		fn(s.mcpServer)
	}

	return s, nil
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &sdkmcp.StdioTransport{})
}

// RunTransport serves one client over t until the client disconnects or
// ctx is cancelled.
func (s *Server) RunTransport(ctx context.Context, t sdkmcp.Transport) error {
	slog.Debug("serving MCP",
		slog.String("server", Name),
		slog.String("version", Version),
		slog.Bool("builtin_tools", s.enableBuiltinTools),
		slog.Bool("builtin_prompts", s.enableBuiltinPrompts),
		slog.Int("custom_registrations", len(s.customRegistrations)),
	)
	return s.mcpServer.Run(ctx, t)
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.mcpServer
}
