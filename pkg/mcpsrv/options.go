package mcpsrv

import (
	"context"
	"net/http"
	"strings"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/config"
)

// serverConfig holds configuration built from options.
type serverConfig struct {
	config     *config.Config
	httpClient *http.Client

	// Dataset loaded before the server starts serving
	dataset *DatasetSource

	// Logging overrides
	logLevel string
	logFile  string

	// Extension toggles
	disableBuiltinTools   bool
	disableBuiltinPrompts bool

	// Custom extensions, kept as callbacks so generic handler types survive
	toolRegistrations     []func(*mcp.Server)
	promptRegistrations   []func(*mcp.Server)
	resourceRegistrations []func(*mcp.Server)

	// Tool registrations that run once Deps exist
	deferredToolRegistrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile sets the log file path. Logs rotate per LOG_MAX_SIZE_MB.
// If empty, logs are written to stderr only.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithHTTPClient sets the HTTP client used to fetch URL datasets.
// FETCH_TIMEOUT_MS and FETCH_MAX_BYTES still apply.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *serverConfig) {
		cfg.httpClient = c
	}
}

// WithConfig replaces the configuration loaded from the environment.
// WithLogLevel and WithLogFile still override its logging fields.
func WithConfig(c *config.Config) Option {
	return func(cfg *serverConfig) {
		if c != nil {
			cfg.config = c
		}
	}
}

// DatasetSource names a dataset to load at startup. Exactly one of Path,
// URL and Content must be set.
type DatasetSource struct {
	Path    string
	URL     string
	Content string
	// Format forces "json" or "csv"; empty detects it.
	Format string
	// DataPath selects a nested array, e.g. "data.items".
	DataPath string
	// Filter is a jq expression applied before record extraction.
	Filter string
}

// WithDataset loads a dataset when the server starts. A load failure is
// logged and the server starts empty; the client can load another dataset.
func WithDataset(src DatasetSource) Option {
	return func(cfg *serverConfig) {
		cfg.dataset = &src
	}
}

// WithDatasetSource is WithDataset for a single path or http(s) URL.
func WithDatasetSource(source string) Option {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return WithDataset(DatasetSource{URL: source})
	}
	return WithDataset(DatasetSource{Path: source})
}

// WithoutBuiltinTools disables all builtin dataset tools and resources.
// The workspace still exists, so WithDepsTool handlers can use it.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithoutBuiltinPrompts disables the builtin explore_dataset prompt.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinPrompts = true
	}
}

// WithTool registers a custom tool that needs nothing from the server.
// Input is decoded from the call's JSON arguments and Out is returned as
// structured content; both schemas are inferred from the Go types.
//
//	type EchoInput struct {
//	    Text string `json:"text"`
//	}
//
//	type EchoOutput struct {
//	    Text string `json:"text"`
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "echo", Description: "Echo text"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, in EchoInput) (*mcp.CallToolResult, EchoOutput, error) {
//	        return nil, EchoOutput{Text: in.Text}, nil
//	    })
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.toolRegistrations = append(cfg.toolRegistrations, func(srv *mcp.Server) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a custom tool whose handler is built from Deps.
// Use this when the tool reads the active dataset, searches it or changes
// settings.
//
//	mcpsrv.WithDepsTool(
//	    &mcp.Tool{Name: "count_matches", Description: "Count records matching a query"},
//	    func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            res := d.Workspace.Engine().Search(&types.SearchRequest{Query: in.Query})
//	            return nil, CountOutput{Total: res.Total}, nil
//	        }
//	    },
//	)
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.deferredToolRegistrations = append(cfg.deferredToolRegistrations, func(srv *mcp.Server, deps *Deps) {
			AddTool(srv, tool, builder(deps))
		})
	}
}

// WithPrompt registers a custom prompt.
//
//	mcpsrv.WithPrompt(
//	    &mcp.Prompt{Name: "find_duplicates", Description: "Look for duplicate records"},
//	    func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
//	        return &mcp.GetPromptResult{
//	            Messages: []*mcp.PromptMessage{
//	                {Role: "user", Content: &mcp.TextContent{Text: "Search each name with =name and report ids that share it."}},
//	            },
//	        }, nil
//	    },
//	)
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.promptRegistrations = append(cfg.promptRegistrations, func(srv *mcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a custom resource template, e.g.
// "mydata://by-key/{key}".
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.resourceRegistrations = append(cfg.resourceRegistrations, func(srv *mcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}

// WithResource registers a custom resource with a fixed URI.
func WithResource(resource *mcp.Resource, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.resourceRegistrations = append(cfg.resourceRegistrations, func(srv *mcp.Server) {
			srv.AddResource(resource, handler)
		})
	}
}
