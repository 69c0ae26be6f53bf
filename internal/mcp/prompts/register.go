package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	// Prompt 1: Explore a dataset
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "explore_dataset",
		Description: "RECOMMENDED: Explore a JSON or CSV dataset. Start here - walks through loading, key discovery, scoped fuzzy search and record inspection, and includes the active dataset's summary.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "source",
				Description: "Path or URL of the dataset to load, if none is active",
				Required:    false,
			},
			{
				Name:        "goal",
				Description: "What you want to find in the data (e.g., 'customers in Oslo', 'products missing a price')",
				Required:    false,
			},
		},
	}, HandleExploreDataset(cfg))
}
