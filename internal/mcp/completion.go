package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/mcp/tools"
)

// maxCompletions is the most values one completion/complete reply carries.
const maxCompletions = 100

// handleComplete suggests record ids for the record resource template and
// flattened keys for the explore_dataset prompt's goal argument.
func (s *Server) handleComplete(ctx context.Context, req *sdkmcp.CompleteRequest) (*sdkmcp.CompleteResult, error) {
	p := req.Params
	if p == nil || p.Ref == nil {
		return emptyCompletion(), nil
	}

	switch {
	case p.Ref.Type == "ref/resource" && p.Ref.URI == tools.RecordURIPrefix+"{id}" && p.Argument.Name == "id":
		return s.completeRecordIDs(p.Argument.Value), nil
	case p.Ref.Type == "ref/prompt" && p.Ref.Name == "explore_dataset" && p.Argument.Name == "goal":
		return completeFrom(s.deps.Workspace.Status().UniqueKeys, p.Argument.Value), nil
	}
	return emptyCompletion(), nil
}

func (s *Server) completeRecordIDs(prefix string) *sdkmcp.CompleteResult {
	ix := s.deps.Workspace.Index()
	if ix.Len() == 0 {
		return emptyCompletion()
	}
	ids := make([]string, 0, ix.Len())
	for _, doc := range ix.Docs() {
		ids = append(ids, doc.ID)
	}
	return completeFrom(ids, prefix)
}

// completeFrom returns the candidates starting with prefix, in order.
func completeFrom(candidates []string, prefix string) *sdkmcp.CompleteResult {
	res := emptyCompletion()
	for _, c := range candidates {
		if !strings.HasPrefix(c, prefix) {
			continue
		}
		res.Completion.Total++
		if len(res.Completion.Values) < maxCompletions {
			res.Completion.Values = append(res.Completion.Values, c)
		}
	}
	res.Completion.HasMore = res.Completion.Total > len(res.Completion.Values)
	return res
}

func emptyCompletion() *sdkmcp.CompleteResult {
	return &sdkmcp.CompleteResult{Completion: sdkmcp.CompletionResultDetails{Values: []string{}}}
}
