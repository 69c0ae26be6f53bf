// Package workspace owns the active dataset: it loads payloads, flattens
// them, reconciles the key registry, rebuilds the search index and keeps
// the query controller in step.
//
// Loads follow last-write-wins: starting a load cancels the one in flight,
// and a load that completes after a newer one started is discarded. A failed
// load leaves the previous dataset queryable and records a user-visible
// error, which the next successful load clears.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/fieldscope-mcp/internal/cache"
	"github.com/usestring/fieldscope-mcp/internal/config"
	"github.com/usestring/fieldscope-mcp/internal/controller"
	"github.com/usestring/fieldscope-mcp/internal/flatten"
	"github.com/usestring/fieldscope-mcp/internal/indexer"
	"github.com/usestring/fieldscope-mcp/internal/ingest"
	"github.com/usestring/fieldscope-mcp/internal/keys"
	"github.com/usestring/fieldscope-mcp/internal/search"
	"github.com/usestring/fieldscope-mcp/internal/settings"
	"github.com/usestring/fieldscope-mcp/pkg/types"
)

var (
	// ErrSuperseded is returned by a load that finished after a newer load
	// started. Its result is discarded.
	ErrSuperseded = errors.New("load superseded by a newer load")
	// ErrNoSource is returned when a request names no path, URL or content.
	ErrNoSource = errors.New("one of path, url or content is required")
	// ErrAmbiguousSource is returned when a request names more than one source.
	ErrAmbiguousSource = errors.New("only one of path, url or content may be set")
)

// Source kinds.
const (
	SourcePath   = "path"
	SourceURL    = "url"
	SourceInline = "inline"
)

// Request describes a dataset to load. Exactly one of Path, URL and
// Content must be set.
type Request struct {
	Path    string
	URL     string
	Content string
	// Format forces "json" or "csv"; empty detects it.
	Format   string
	DataPath string
	Filter   string
}

func (r Request) kind() (string, error) {
	n := 0
	kind := ""
	if strings.TrimSpace(r.Path) != "" {
		n++
		kind = SourcePath
	}
	if strings.TrimSpace(r.URL) != "" {
		n++
		kind = SourceURL
	}
	if r.Content != "" {
		n++
		kind = SourceInline
	}
	switch n {
	case 0:
		return "", ErrNoSource
	case 1:
		return kind, nil
	}
	return "", ErrAmbiguousSource
}

// Snapshot is one committed dataset.
type Snapshot struct {
	ID         string
	Version    uint64
	SourceKind string
	Source     string
	Format     string
	IDRule     ingest.IDRule
	CSV        *types.CSVShape
	Docs       []*flatten.Document
	Keys       keys.Summary
	LoadedAt   time.Time

	request Request
}

// Workspace is safe for concurrent use.
type Workspace struct {
	cfg        *config.Config
	fetcher    *ingest.Fetcher
	store      *settings.Store
	indexer    *indexer.Indexer
	engine     *search.SearchEngine
	controller *controller.Controller

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *Snapshot
	version uint64
	lastErr string
	keysErr string

	triggers *triggers
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithFetcher replaces the default fetcher.
func WithFetcher(f *ingest.Fetcher) Option {
	return func(w *Workspace) { w.fetcher = f }
}

// New creates an empty workspace. store may be nil for in-memory settings.
func New(cfg *config.Config, store *settings.Store, opts ...Option) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if store == nil {
		var err error
		if store, err = settings.Open(""); err != nil {
			return nil, err
		}
	}

	qc, err := cache.NewQueryCache(cfg.ResultCacheItems)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}

	w := &Workspace{
		cfg:   cfg,
		store: store,
		fetcher: ingest.NewFetcher(
			ingest.WithTimeout(cfg.FetchTimeout),
			ingest.WithMaxBytes(cfg.FetchMaxBytes),
		),
		indexer: indexer.New(cfg),
	}
	w.engine = search.New(w.indexer, qc, cfg)
	w.controller = controller.New(w.engine, cfg, controller.WithSearchKeyHook(w.applySearchKey))
	w.triggers = newTriggers(w)
	for _, opt := range opts {
		opt(w)
	}

	// The stored scope applies from the first query on.
	if field := store.Get().SearchField(); field != "" {
		if _, err := w.controller.SetSearchKey(field); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Config returns the workspace configuration.
func (w *Workspace) Config() *config.Config { return w.cfg }

// Engine returns the search engine over the active dataset.
func (w *Workspace) Engine() *search.SearchEngine { return w.engine }

// Controller returns the query controller.
func (w *Workspace) Controller() *controller.Controller { return w.controller }

// Settings returns the settings store.
func (w *Workspace) Settings() *settings.Store { return w.store }

// Index returns the committed search index.
func (w *Workspace) Index() *indexer.Index { return w.indexer.Current() }

// Snapshot returns the active dataset, nil before the first load.
func (w *Workspace) Snapshot() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// LastError returns the message of the last failed load, "" after a success.
func (w *Workspace) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Load reads, parses and indexes a dataset and makes it active.
func (w *Workspace) Load(ctx context.Context, req Request) (*types.DatasetStatus, error) {
	kind, err := req.kind()
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.seq++
	seq := w.seq
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()
	defer cancel()

	start := time.Now()
	ds, docs, err := w.prepare(ctx, kind, req)

	w.mu.Lock()
	if seq != w.seq {
		w.mu.Unlock()
		slog.Debug("discarding superseded load", slog.String("source", describe(kind, req)))
		return nil, ErrSuperseded
	}
	if err != nil {
		w.lastErr = userMessage(kind, err)
		w.mu.Unlock()
		slog.Warn("dataset load failed",
			slog.String("source", describe(kind, req)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	snap := w.commitLocked(kind, req, ds, docs)
	w.mu.Unlock()

	w.controller.Refresh()
	w.triggers.follow(kind, req)

	slog.Info("dataset loaded",
		slog.String("dataset_id", snap.ID),
		slog.String("source", snap.Source),
		slog.String("format", snap.Format),
		slog.Int("records", len(snap.Docs)),
		slog.Int("keys", len(snap.Keys.UniqueKeys)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return w.Status(), nil
}

// Reload repeats the request of the active dataset.
func (w *Workspace) Reload(ctx context.Context) (*types.DatasetStatus, error) {
	w.mu.Lock()
	cur := w.current
	w.mu.Unlock()
	if cur == nil {
		return nil, ErrNoSource
	}
	return w.Load(ctx, cur.request)
}

func (w *Workspace) prepare(ctx context.Context, kind string, req Request) (*ingest.Dataset, []*flatten.Document, error) {
	payload, err := w.read(ctx, kind, req)
	if err != nil {
		return nil, nil, err
	}
	ds, err := payload.Parse(ingest.Options{DataPath: req.DataPath, Filter: req.Filter})
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	docs, err := flattenRecords(ctx, ds.Records, w.cfg.BuildWorkers)
	if err != nil {
		return nil, nil, err
	}
	return ds, docs, nil
}

func (w *Workspace) read(ctx context.Context, kind string, req Request) (*ingest.Payload, error) {
	switch kind {
	case SourcePath:
		return ingest.ReadFile(req.Path, req.Format, w.cfg.FetchMaxBytes)
	case SourceURL:
		return w.fetcher.Fetch(ctx, req.URL, req.Format)
	}
	return ingest.NewPayload([]byte(req.Content), "", SourceInline, req.Format)
}

// commitLocked makes the dataset active: keys are reconciled into the
// settings and the index is rebuilt for the configured search scope.
func (w *Workspace) commitLocked(kind string, req Request, ds *ingest.Dataset, docs []*flatten.Document) *Snapshot {
	w.version++
	snap := &Snapshot{
		ID:         uuid.NewString(),
		Version:    w.version,
		SourceKind: kind,
		Source:     describe(kind, req),
		Format:     string(ds.Format),
		IDRule:     ds.IDRule,
		CSV:        ds.CSV,
		Docs:       docs,
		Keys:       keys.Collect(docs),
		LoadedAt:   time.Now(),
		request:    req,
	}

	added, mergeErr := w.store.MergeKeys(snap.Keys.UniqueKeys)
	if mergeErr != nil {
		slog.Warn("failed to record dataset keys", slog.String("error", mergeErr.Error()))
	} else if len(added) > 0 {
		slog.Debug("new keys registered", slog.Int("count", len(added)))
	}

	w.indexer.Build(snap.Version, docs, w.scopeFields(snap, w.store.Get().SearchField()))
	w.current = snap
	w.lastErr = ""
	w.keysErr = ""
	if mergeErr != nil {
		w.keysErr = "keys of the loaded dataset were not saved: " + mergeErr.Error()
	}
	return snap
}

// scopeFields lists the fields to index: the scoped field or every key.
func (w *Workspace) scopeFields(snap *Snapshot, field string) []string {
	if field != "" {
		return []string{field}
	}
	return snap.Keys.UniqueKeys
}

// applySearchKey persists a new search scope and rebuilds the index for
// it. It runs inside the controller and must not call back into it.
func (w *Workspace) applySearchKey(field string) error {
	if _, err := w.store.Update(func(s *settings.Settings) { s.SetSearchField(field) }); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	w.indexer.RebuildIfStale(w.current.Version, w.current.Docs, w.scopeFields(w.current, field))
	return nil
}

// Status summarises the active dataset.
func (w *Workspace) Status() *types.DatasetStatus {
	w.mu.Lock()
	cur := w.current
	lastErr := w.lastErr
	keysErr := w.keysErr
	w.mu.Unlock()

	st := w.store.Get()
	status := &types.DatasetStatus{
		UniqueKeys:  []string{},
		Keys:        st.Keys,
		SearchKey:   st.SearchField(),
		LastError:   lastErr,
		SettingsErr: keysErr,
		Watching:    w.triggers.watching(),
		RefreshCron: w.triggers.schedule(),
	}
	if cur == nil {
		return status
	}

	status.Loaded = true
	status.SnapshotID = cur.ID
	status.Version = cur.Version
	status.Source = cur.Source
	status.Format = cur.Format
	status.IDRule = string(cur.IDRule)
	status.Records = len(cur.Docs)
	status.UniqueKeys = cur.Keys.UniqueKeys
	status.FirstKey = cur.Keys.FirstKey
	status.LoadedAtMs = cur.LoadedAt.UnixMilli()
	if ix := w.indexer.Current(); ix != nil {
		status.Index = ix.Meta().ToSummary()
	}
	return status
}

// Close stops file watching and scheduled refreshes.
func (w *Workspace) Close() {
	w.triggers.stop()
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Unlock()
}

func describe(kind string, req Request) string {
	switch kind {
	case SourcePath:
		return req.Path
	case SourceURL:
		return req.URL
	}
	return SourceInline
}

// userMessage renders a failed load for display.
func userMessage(kind string, err error) string {
	if kind == SourceURL {
		return fmt.Sprintf("Error fetching or processing the file: %s. Please check the URL and try again.", err)
	}
	return fmt.Sprintf("Error processing file: %s. Please try again.", err)
}
