package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "metasearch-gateway/internal/domain/search"
)

const searxngPayload = `{
	"query": "rust ownership",
	"number_of_results": 3,
	"results": [
		{"title": "The Rust Book", "url": "https://doc.rust-lang.org/book/", "content": "Ownership chapter", "engine": "duckduckgo"},
		{"title": "", "url": "https://missing-title.example", "content": "dropped"},
		{"title": "Missing URL", "url": "", "content": "dropped"},
		{"title": "Rustonomicon", "url": "https://doc.rust-lang.org/nomicon/", "content": "Advanced", "engine": "google"}
	],
	"answers": ["Ownership is Rust's memory model."]
}`

func TestSearxngAdapter_Search(t *testing.T) {
	var gotQuery, gotFormat, gotCategories string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotCategories = r.URL.Query().Get("categories")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(searxngPayload))
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	res, err := adapter.Search(context.Background(), domainsearch.Query{
		Text:          "rust ownership",
		IncludeAnswer: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "rust ownership", gotQuery)
	assert.Equal(t, "json", gotFormat)
	assert.Equal(t, "general", gotCategories)

	require.Len(t, res.Results, 2, "entries missing title or url are dropped")
	assert.Equal(t, "The Rust Book", res.Results[0].Title)
	assert.Equal(t, "https://doc.rust-lang.org/book/", res.Results[0].URL)
	assert.Equal(t, "Ownership chapter", res.Results[0].Snippet)
	assert.Equal(t, domainsearch.ProviderSearxng, res.Results[0].Source)
	assert.Equal(t, "Ownership is Rust's memory model.", res.Answer)
}

func TestSearxngAdapter_AnswerOnlyWhenRequested(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searxngPayload))
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	res, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust ownership"})

	require.NoError(t, err)
	assert.Empty(t, res.Answer)
}

func TestSearxngAdapter_MaxResultsTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searxngPayload))
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	res, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust", MaxResults: 1})

	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}

func TestSearxngAdapter_RetriesTransientFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(searxngPayload))
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	res, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust ownership"})

	require.NoError(t, err, "a single transient failure must be absorbed by the retry budget")
	assert.Equal(t, int32(2), hits.Load())
	assert.NotEmpty(t, res.Results)
}

func TestSearxngAdapter_ExhaustsRetriesOnPersistent5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust"})

	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load(), "initial attempt plus two retries")
	assert.True(t, domainsearch.IsAdapterError(err, domainsearch.ErrKindBackendFailure))
}

func TestSearxngAdapter_DoesNotRetry4xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "format not allowed", http.StatusForbidden)
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust"})

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	var adErr *domainsearch.AdapterError
	require.ErrorAs(t, err, &adErr)
	assert.Equal(t, http.StatusForbidden, adErr.Status)
	assert.Contains(t, adErr.Body, "format not allowed")
}

func TestSearxngAdapter_MalformedBodyIsParseFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust"})

	require.Error(t, err)
	assert.True(t, domainsearch.IsAdapterError(err, domainsearch.ErrKindParseFailure))
	assert.Equal(t, int32(1), hits.Load(), "parse failures are not retried")
}

func TestSearxngAdapter_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	adapter := NewSearxngAdapter(srv.URL, testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "rust"})

	require.Error(t, err)
	assert.True(t, domainsearch.IsAdapterError(err, domainsearch.ErrKindBackendFailure))
}
