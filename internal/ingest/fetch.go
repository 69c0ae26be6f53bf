package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultMaxBytes caps fetched and read payloads when no limit is set.
const DefaultMaxBytes int64 = 64 << 20

// ErrTooLarge is returned when a payload exceeds the configured size cap.
var ErrTooLarge = errors.New("payload too large")

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Fetcher downloads remote datasets. Concurrent fetches of the same URL
// share one request.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	maxBytes   int64
	group      singleflight.Group
}

// FetchOption is a functional option for configuring the Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithTimeout bounds each request. Zero disables the bound.
func WithTimeout(d time.Duration) FetchOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes caps the response body size.
func WithMaxBytes(n int64) FetchOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RawURL rewrites GitHub file page URLs (github.com/o/r/blob/...) to the
// raw.githubusercontent.com address serving the file itself. Other URLs are
// returned unchanged.
func RawURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "github.com") || !strings.Contains(u.Path, "/blob/") {
		return raw
	}
	u.Host = "raw.githubusercontent.com"
	u.Path = strings.Replace(u.Path, "/blob/", "/", 1)
	u.RawPath = ""
	return u.String()
}

// Fetch downloads rawURL. format forces "json" or "csv"; empty detects it
// from the response. The request keeps running for other waiters if ctx is
// cancelled; only this caller returns.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, format string) (*Payload, error) {
	target := RawURL(strings.TrimSpace(rawURL))
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid URL %q", ErrMalformed, rawURL)
	}

	ch := f.group.DoChan(target, func() (any, error) {
		return f.get(context.WithoutCancel(ctx), target)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		raw := res.Val.(*fetched)
		return NewPayload(raw.data, raw.contentType, target, format)
	}
}

type fetched struct {
	data        []byte
	contentType string
}

func (f *Fetcher) get(ctx context.Context, target string) (*fetched, error) {
	start := time.Now()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		slog.Debug("fetch failed",
			slog.String("url", target),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("fetch returned error",
			slog.String("url", target),
			slog.Int("status", resp.StatusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return nil, err
	}

	slog.Debug("fetch completed",
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &fetched{data: data, contentType: resp.Header.Get("Content-Type")}, nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
