package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "metasearch-gateway/internal/domain/search"
)

const tavilyPayload = `{
	"query": "go generics",
	"answer": "Generics landed in Go 1.18.",
	"results": [
		{"title": "Go Generics Tutorial", "url": "https://go.dev/doc/tutorial/generics", "content": "Type parameters", "score": 0.98},
		{"title": "", "url": "https://missing-title.example", "content": "dropped"},
		{"title": "Go Blog", "url": "https://go.dev/blog/intro-generics", "content": "Intro", "score": 0.91}
	]
}`

func TestTavilyAdapter_Search(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tavilyPayload))
	}))
	defer srv.Close()

	adapter := NewTavilyAdapter("tvly-test-key", srv.URL+"/search", testClientOptions())
	res, err := adapter.Search(context.Background(), domainsearch.Query{
		Text:          "go generics",
		MaxResults:    5,
		Depth:         domainsearch.DepthAdvanced,
		IncludeAnswer: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "tvly-test-key", gotBody["api_key"])
	assert.Equal(t, "go generics", gotBody["query"])
	assert.Equal(t, "advanced", gotBody["search_depth"])
	assert.Equal(t, float64(5), gotBody["max_results"])
	assert.Equal(t, true, gotBody["include_answer"])

	require.Len(t, res.Results, 2, "entries missing title are dropped")
	assert.Equal(t, "Go Generics Tutorial", res.Results[0].Title)
	assert.Equal(t, domainsearch.ProviderTavily, res.Results[0].Source)
	assert.Equal(t, "Generics landed in Go 1.18.", res.Answer)
}

func TestTavilyAdapter_DepthDefaultsToBasic(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(tavilyPayload))
	}))
	defer srv.Close()

	adapter := NewTavilyAdapter("tvly-test-key", srv.URL+"/search", testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "go generics"})

	require.NoError(t, err)
	assert.Equal(t, "basic", gotBody["search_depth"])
}

func TestTavilyAdapter_DoesNotRetryUnauthorized(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	adapter := NewTavilyAdapter("bad-key", srv.URL+"/search", testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "go"})

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	var adErr *domainsearch.AdapterError
	require.ErrorAs(t, err, &adErr)
	assert.Equal(t, http.StatusUnauthorized, adErr.Status)
}

func TestTavilyAdapter_DoesNotRetryRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewTavilyAdapter("tvly-test-key", srv.URL+"/search", testClientOptions())
	_, err := adapter.Search(context.Background(), domainsearch.Query{Text: "go"})

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "4xx responses are never retried")

	var adErr *domainsearch.AdapterError
	require.ErrorAs(t, err, &adErr)
	assert.Equal(t, http.StatusTooManyRequests, adErr.Status)
}

func TestTavilyAdapter_FetchWebpage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"results":[{"url":"https://example.com","raw_content":"Full page text here"}]}`))
	}))
	defer srv.Close()

	adapter := NewTavilyAdapter("tvly-test-key", srv.URL+"/search", testClientOptions())
	res, err := adapter.FetchWebpage(context.Background(), domainsearch.FetchRequest{URL: "https://example.com"})

	require.NoError(t, err)
	assert.Equal(t, "/extract", gotPath)
	assert.Equal(t, []any{"https://example.com"}, gotBody["urls"])
	assert.Equal(t, "Full page text here", res.Text)
	assert.Equal(t, "tavily", res.Metadata["provider"])
}

func TestTavilyAdapter_FetchWebpage_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	adapter := NewTavilyAdapter("tvly-test-key", srv.URL+"/search", testClientOptions())
	res, err := adapter.FetchWebpage(context.Background(), domainsearch.FetchRequest{URL: "https://example.com"})

	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestTavilyAdapter_ExtractEndpointDerivation(t *testing.T) {
	adapter := NewTavilyAdapter("k", "https://proxy.internal/search", testClientOptions())
	assert.Equal(t, "https://proxy.internal/extract", adapter.extractEndpoint())

	adapter = NewTavilyAdapter("k", "https://proxy.internal/other", testClientOptions())
	assert.Equal(t, tavilyExtractEndpointDefault, adapter.extractEndpoint())
}
