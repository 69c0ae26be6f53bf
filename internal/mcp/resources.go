package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/mcp/tools"
	"github.com/usestring/fieldscope-mcp/internal/profile"
)

// Resource URI scheme: fieldscope://
// Supported URIs:
//   fieldscope://record/{id}
//   fieldscope://keys
//   fieldscope://schema

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: tools.RecordURIPrefix + "{id}",
		Name:        "Dataset Record",
		Description: "One record of the active dataset, untrimmed and in its original key order. Use fieldscope_dataset_get_record first; it returns a trimmed copy plus this URI.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.6,
		},
	}, s.handleResourceRecord)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         tools.KeysURI,
		Name:        "Key Registry",
		Description: "Every flattened key of the active dataset with its visibility flag, in sorted order.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceKeys)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         tools.SchemaURI,
		Name:        "Dataset Schema",
		Description: "JSON Schema (Draft 2020-12) inferred from the original records of the active dataset. Large datasets are sampled evenly.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceSchema)
}

// Resource handlers

func (s *Server) handleResourceRecord(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	id, err := parseRecordURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	doc, err := s.deps.LookupRecord(id)
	if err != nil {
		var coded *tools.CodedError
		if errors.As(err, &coded) && coded.Code == tools.ErrCodeNotFound {
			return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, err
	}

	return toResourceResult(req.Params.URI, doc.Source)
}

// keyEntry is one row of the key registry resource.
type keyEntry struct {
	Key     string `json:"key"`
	Visible bool   `json:"visible"`
	Present bool   `json:"present"`
}

func (s *Server) handleResourceKeys(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	status := s.deps.Workspace.Status()

	present := make(map[string]bool, len(status.UniqueKeys))
	for _, k := range status.UniqueKeys {
		present[k] = true
	}
	names := slices.Sorted(maps.Keys(status.Keys))
	entries := make([]keyEntry, 0, len(names))
	for _, k := range names {
		entries = append(entries, keyEntry{Key: k, Visible: status.Keys[k], Present: present[k]})
	}

	content := map[string]any{
		"first_key":  status.FirstKey,
		"search_key": status.SearchKey,
		"keys":       entries,
	}
	return toResourceResult(req.Params.URI, content)
}

func (s *Server) handleResourceSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	snap := s.deps.Workspace.Snapshot()
	if snap == nil {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	return toResourceResult(req.Params.URI, profile.InferSchema(profile.Sample(snap.Docs, s.deps.Config.ProfileSamples)))
}

// Helper functions

// parseRecordURI extracts the record id from a fieldscope://record/ URI.
func parseRecordURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "fieldscope://") {
		return "", tools.ErrInvalidInput("invalid URI scheme: expected fieldscope://")
	}
	rest, ok := strings.CutPrefix(uri, tools.RecordURIPrefix)
	if !ok || rest == "" {
		return "", tools.ErrInvalidInput("record URI requires a record id")
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		return "", tools.ErrInvalidInput(fmt.Sprintf("invalid record id %q: %v", rest, err))
	}
	return id, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
