package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/fieldscope-mcp/internal/profile"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

// DatasetDescribeInput is the input for fieldscope_dataset_describe.
type DatasetDescribeInput struct {
	Keys          []string `json:"keys,omitempty" jsonschema:"Only describe these flattened keys (default: all)"`
	Prefix        string   `json:"prefix,omitempty" jsonschema:"Only describe keys starting with this prefix, e.g. address."`
	IncludeHidden bool     `json:"include_hidden,omitempty" jsonschema:"Include keys hidden in the settings (default: false)"`
	IncludeSchema bool     `json:"include_schema,omitempty" jsonschema:"Include a JSON Schema inferred from the original records (default: false)"`
}

// DatasetDescribeOutput is the output for fieldscope_dataset_describe.
type DatasetDescribeOutput struct {
	Records int                `json:"records"`
	Sampled int                `json:"sampled"`
	Keys    []types.KeyProfile `json:"keys,omitzero"`
	Schema  any                `json:"schema,omitempty"`
	CSV     *types.CSVShape    `json:"csv,omitempty"`
	Hint    string             `json:"hint,omitempty"`
}

// ToolDatasetDescribe profiles the keys of the active dataset.
func ToolDatasetDescribe(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetDescribeInput) (*sdkmcp.CallToolResult, DatasetDescribeOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DatasetDescribeInput) (*sdkmcp.CallToolResult, DatasetDescribeOutput, error) {
		prof, err := d.Profile()
		if err != nil {
			return nil, DatasetDescribeOutput{}, err
		}

		out := DatasetDescribeOutput{Records: prof.Records, Sampled: prof.Sampled}
		for _, kp := range prof.Keys {
			if !input.IncludeHidden && !kp.Visible {
				continue
			}
			if input.Prefix != "" && !strings.HasPrefix(kp.Key, input.Prefix) {
				continue
			}
			if len(input.Keys) > 0 && !slices.Contains(input.Keys, kp.Key) {
				continue
			}
			out.Keys = append(out.Keys, kp)
		}

		snap := d.Workspace.Snapshot()
		out.CSV = snap.CSV

		if input.IncludeSchema {
			schema, err := types.ToAny(profile.InferSchema(profile.Sample(snap.Docs, d.Config.ProfileSamples)))
			if err != nil {
				return nil, DatasetDescribeOutput{}, fmt.Errorf("encoding schema: %w", err)
			}
			out.Schema = schema
		}

		out.Hint = describeHint(out, prof)
		return nil, out, nil
	}
}

// Profile computes the key profile of the active dataset.
func (d *Deps) Profile() (*types.DatasetProfile, error) {
	snap := d.Workspace.Snapshot()
	if snap == nil {
		return nil, ErrNoDataset()
	}
	sample := profile.Sample(snap.Docs, d.Config.ProfileSamples)
	keyProfiles := profile.Keys(sample)

	visibility := d.Workspace.Settings().Get().Keys
	for i := range keyProfiles {
		show, ok := visibility[keyProfiles[i].Key]
		keyProfiles[i].Visible = !ok || show
	}
	return &types.DatasetProfile{
		SnapshotID: snap.ID,
		Records:    len(snap.Docs),
		Sampled:    len(sample),
		Keys:       keyProfiles,
	}, nil
}

func describeHint(out DatasetDescribeOutput, prof *types.DatasetProfile) string {
	if len(out.Keys) == 0 {
		return "No keys matched. Check keys/prefix or set include_hidden=true."
	}
	var sb strings.Builder
	printer.Fprintf(&sb, "Described %s", countNoun(len(out.Keys), "key", "keys"))
	if prof.Sampled < prof.Records {
		printer.Fprintf(&sb, " from %d of %d records", prof.Sampled, prof.Records)
	}
	sb.WriteString(". ")

	// Suggest a search scope: the most distinctive always-present string key.
	var best *types.KeyProfile
	for i := range out.Keys {
		kp := &out.Keys[i]
		if kp.Type != "string" || kp.Frequency < 1 || kp.Format != "" || kp.Key == "id" || kp.Key == "_id" {
			continue
		}
		if best == nil || kp.DistinctCount > best.DistinctCount {
			best = kp
		}
	}
	if best != nil {
		fmt.Fprintf(&sb, "%q looks like a good searchKey for fieldscope_settings_update. ", best.Key)
	}
	if out.CSV != nil {
		dropped := 0
		for _, col := range out.CSV.Columns {
			if col.Dropped {
				dropped++
			}
		}
		if dropped > 0 {
			fmt.Fprintf(&sb, "%s with a blank header %s dropped.", countNoun(dropped, "CSV column", "CSV columns"), pluralVerb(dropped))
		}
	}
	return strings.TrimSpace(sb.String())
}

func pluralVerb(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}
