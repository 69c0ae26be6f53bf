package workspace

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/ingest"
)

// flattenChunk is the number of records one worker flattens per task.
const flattenChunk = 512

// flattenRecords flattens records on a bounded worker pool, keeping
// dataset order in the result.
func flattenRecords(ctx context.Context, records []ingest.Record, workers int) ([]*flatten.Document, error) {
	if workers <= 0 {
		workers = 1
	}
	docs := make([]*flatten.Document, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < len(records); lo += flattenChunk {
		hi := min(lo+flattenChunk, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				docs[i] = flatten.NewDocument(records[i].ID, i, records[i].Value)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}
