package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/fieldscope-mcp/pkg/contenttype"
)

func TestRawURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			"https://github.com/acme/data/blob/main/people.json",
			"https://raw.githubusercontent.com/acme/data/main/people.json",
		},
		{
			"https://github.com/acme/data/blob/main/dir/blob/x.csv",
			"https://raw.githubusercontent.com/acme/data/main/dir/blob/x.csv",
		},
		{"https://github.com/acme/data", "https://github.com/acme/data"},
		{"https://example.com/blob/x.json", "https://example.com/blob/x.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RawURL(tt.in))
	}
}

func TestFetch_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`[{"id":"a"}]`))
	}))
	defer srv.Close()

	f := NewFetcher(WithTimeout(5 * time.Second))
	p, err := f.Fetch(context.Background(), srv.URL+"/api/people", "")
	require.NoError(t, err)
	assert.Equal(t, contenttype.JSON, p.Format)
	assert.Equal(t, srv.URL+"/api/people", p.Source)

	ds, err := p.Parse(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, recordIDs(ds))
}

func TestFetch_FormatFromExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("name,age\nAnn,30\n"))
	}))
	defer srv.Close()

	p, err := NewFetcher().Fetch(context.Background(), srv.URL+"/people.csv", "")
	require.NoError(t, err)
	assert.Equal(t, contenttype.CSV, p.Format)
}

func TestFetch_ExplicitFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(`[1,2]`))
	}))
	defer srv.Close()

	p, err := NewFetcher().Fetch(context.Background(), srv.URL+"/dump", "csv")
	require.NoError(t, err)
	assert.Equal(t, contenttype.CSV, p.Format)
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewFetcher().Fetch(context.Background(), srv.URL+"/missing.json", "")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "HTTP error! status: 404", err.Error())
}

func TestFetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3,4,5,6,7,8,9,10]`))
	}))
	defer srv.Close()

	_, err := NewFetcher(WithMaxBytes(8)).Fetch(context.Background(), srv.URL+"/x.json", "")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetch_InvalidURL(t *testing.T) {
	f := NewFetcher()
	for _, u := range []string{"ftp://example.com/x.json", "not a url", ""} {
		_, err := f.Fetch(context.Background(), u, "")
		assert.ErrorIs(t, err, ErrMalformed, "url %q", u)
	}
}

func TestFetch_CallerCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher().Fetch(ctx, srv.URL+"/x.json", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_SharesConcurrentRequests(t *testing.T) {
	var hits atomic.Int32
	arrived := make(chan struct{}, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		arrived <- struct{}{}
		<-release
		_, _ = w.Write([]byte(`[{"id":"a"}]`))
	}))
	defer srv.Close()

	f := NewFetcher()
	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = f.Fetch(context.Background(), srv.URL+"/x.json", "")
	}()
	<-arrived

	// The first request is in flight; a second caller joins it.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = f.Fetch(context.Background(), srv.URL+"/x.json", "")
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), hits.Load())
}
