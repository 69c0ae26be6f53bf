package mcpsrv

import (
	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/workspace"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools:
// the workspace owns the active dataset, its search engine, the query
// controller and the settings store.
type Deps struct {
	Workspace *workspace.Workspace
	Config    *config.Config
}
