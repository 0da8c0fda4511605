package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/config"
	mcproute "metasearch-gateway/internal/interfaces/httpserver/routes/mcp"
	restroute "metasearch-gateway/internal/interfaces/httpserver/routes/rest"
)

type staticAdapter struct {
	provider domainsearch.Provider
}

func (s *staticAdapter) Search(ctx context.Context, query domainsearch.Query) (*domainsearch.Response, error) {
	return &domainsearch.Response{
		Results: []domainsearch.Result{
			{Title: "Result", URL: "https://example.com", Source: s.provider},
		},
	}, nil
}

func (s *staticAdapter) Provider() domainsearch.Provider { return s.provider }

func newTestServer(t *testing.T) *HTTPServer {
	t.Helper()

	gw := domainsearch.NewGateway(
		&staticAdapter{provider: domainsearch.ProviderSearxng},
		&staticAdapter{provider: domainsearch.ProviderTavily},
		nil,
		domainsearch.ModeMerge,
	)
	searchMCP := mcproute.NewSearchMCP(gw, mcproute.SearchMCPConfig{EnableFetchWebpage: false})
	route := mcproute.NewMCPRoute(mcproute.NewToolServer(searchMCP))
	searchRoute := restroute.NewSearchRoute(gw)

	cfg := &config.Config{
		HTTPPort:  "0",
		LogFormat: "json",
	}
	return NewHTTPServer(cfg, route, searchRoute)
}

func TestHTTPServer_Health(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "metasearch-gateway", body["service"])
	}
}

func TestHTTPServer_Metrics(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPServer_MCPRejectsUnsupportedMethod(t *testing.T) {
	srv := newTestServer(t)

	body := `{"jsonrpc":"2.0","method":"resources/subscribe","id":1}`
	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported MCP method")
}

func TestHTTPServer_RESTSearch(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=go", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://example.com")
}

func TestHTTPServer_MCPInitialize(t *testing.T) {
	srv := newTestServer(t)

	body := `{"jsonrpc":"2.0","method":"initialize","id":1,"params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "metasearch-gateway")
}
