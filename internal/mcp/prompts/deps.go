// Package prompts contains MCP prompt implementations for fieldscope.
package prompts

import "github.com/usestring/fieldscope-mcp/pkg/types"

// Config holds configuration needed by prompts.
type Config struct {
	// Status reports the active dataset; nil when prompts run without one.
	Status   func() *types.DatasetStatus
	PageSize int
}
