package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "metasearch-gateway/internal/domain/search"
)

type stubAdapter struct {
	provider domainsearch.Provider
	res      *domainsearch.Response
	err      error
	got      domainsearch.Query
}

func (s *stubAdapter) Search(ctx context.Context, query domainsearch.Query) (*domainsearch.Response, error) {
	s.got = query
	if s.err != nil {
		return nil, s.err
	}
	return s.res, nil
}

func (s *stubAdapter) Provider() domainsearch.Provider { return s.provider }

func searchRouter(primary, secondary domainsearch.Adapter, mode domainsearch.Mode) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	gw := domainsearch.NewGateway(primary, secondary, nil, mode)
	NewSearchRoute(gw).RegisterRouter(router.Group("/v1"))
	return router
}

func TestSearchRoute_Success(t *testing.T) {
	primary := &stubAdapter{
		provider: domainsearch.ProviderSearxng,
		res: &domainsearch.Response{
			Results: []domainsearch.Result{
				{Title: "Go Docs", URL: "https://go.dev/doc/", Source: domainsearch.ProviderSearxng},
			},
			Answer: "direct answer",
		},
	}
	router := searchRouter(primary, &stubAdapter{provider: domainsearch.ProviderTavily}, domainsearch.ModePreferPrimary)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=go+docs&max_results=3&include_answer=true&categories=it,news", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body domainsearch.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "https://go.dev/doc/", body.Results[0].URL)
	assert.Equal(t, "direct answer", body.Answer)

	assert.Equal(t, "go docs", primary.got.Text)
	assert.Equal(t, 3, primary.got.MaxResults)
	assert.True(t, primary.got.IncludeAnswer)
	assert.Equal(t, []string{"it", "news"}, primary.got.Categories)
}

func TestSearchRoute_EmptyQuery(t *testing.T) {
	router := searchRouter(
		&stubAdapter{provider: domainsearch.ProviderSearxng},
		&stubAdapter{provider: domainsearch.ProviderTavily},
		domainsearch.ModeMerge,
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=%20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "non-empty 'q' parameter")
}

func TestSearchRoute_BackendFailureMapsTo502(t *testing.T) {
	failing := &stubAdapter{
		provider: domainsearch.ProviderSearxng,
		err:      domainsearch.NewBackendError(domainsearch.ProviderSearxng, 503, "down"),
	}
	router := searchRouter(failing, &stubAdapter{provider: domainsearch.ProviderTavily}, domainsearch.ModePreferPrimary)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=go", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "search failed", body["error"])
	assert.Equal(t, "backend_failure", body["kind"])
}

func TestSearchRoute_TimeoutMapsTo504(t *testing.T) {
	failing := &stubAdapter{
		provider: domainsearch.ProviderSearxng,
		err:      domainsearch.NewTimeoutError(domainsearch.ProviderSearxng, context.DeadlineExceeded),
	}
	router := searchRouter(failing, &stubAdapter{provider: domainsearch.ProviderTavily}, domainsearch.ModePreferPrimary)

	req := httptest.NewRequest(http.MethodGet, "/v1/search?q=go", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Contains(t, rec.Body.String(), "timeout")
}
