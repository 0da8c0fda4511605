package search

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/metrics"
)

const (
	tavilySearchEndpointDefault  = "https://api.tavily.com/search"
	tavilyExtractEndpointDefault = "https://api.tavily.com/extract"
)

// TavilyAdapter implements domainsearch.Adapter against the hosted Tavily
// API. The API key travels in the request body per Tavily's scheme.
type TavilyAdapter struct {
	client   *resty.Client
	apiKey   string
	endpoint string
	retry    RetryConfig
	breaker  *CircuitBreaker
}

var (
	_ domainsearch.Adapter = (*TavilyAdapter)(nil)
	_ domainsearch.Fetcher = (*TavilyAdapter)(nil)
)

// NewTavilyAdapter wires an adapter for the Tavily API. An empty endpoint
// keeps the hosted default.
func NewTavilyAdapter(apiKey, endpoint string, opts ClientOptions) *TavilyAdapter {
	opts = opts.withDefaults()
	if strings.TrimSpace(endpoint) == "" {
		endpoint = tavilySearchEndpointDefault
	}
	return &TavilyAdapter{
		client:   newRestyClient(opts),
		apiKey:   apiKey,
		endpoint: endpoint,
		retry:    opts.Retry,
		breaker:  NewCircuitBreaker(string(domainsearch.ProviderTavily), opts.Breaker),
	}
}

func (a *TavilyAdapter) Provider() domainsearch.Provider {
	return domainsearch.ProviderTavily
}

// Search runs one query against Tavily, retrying transient failures per
// the retry policy.
func (a *TavilyAdapter) Search(ctx context.Context, query domainsearch.Query) (*domainsearch.Response, error) {
	if err := a.breaker.Allow(); err != nil {
		log.Error().Str("provider", "tavily").Msg("circuit breaker is open, skipping")
		return nil, err
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("search", "tavily", status)
		metrics.RecordExternalProviderLatency("tavily", time.Since(startTime).Seconds())
	}()

	resultPtr, err := WithRetry(ctx, a.retry, "tavily_search", func() (*tavilySearchResponse, error) {
		return a.doSearch(ctx, query)
	})

	a.breaker.RecordResult(err)
	if err != nil {
		status = "error"
		log.Error().Err(err).Str("provider", "tavily").Str("query", query.Text).Msg("tavily search failed after retries")
		return nil, err
	}

	return a.normalize(query, resultPtr), nil
}

func (a *TavilyAdapter) doSearch(ctx context.Context, query domainsearch.Query) (*tavilySearchResponse, error) {
	depth := string(domainsearch.DepthBasic)
	if query.Depth != "" {
		depth = string(query.Depth)
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"api_key":        a.apiKey,
			"query":          query.Text,
			"search_depth":   depth,
			"max_results":    resultLimit(query),
			"include_answer": query.IncludeAnswer,
		}).
		Post(a.endpoint)

	if err != nil {
		return nil, classifyTransportError(domainsearch.ProviderTavily, err)
	}
	if resp.IsError() {
		return nil, domainsearch.NewBackendError(
			domainsearch.ProviderTavily, resp.StatusCode(), trimErrorBody(resp.Body()))
	}

	var result tavilySearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, domainsearch.NewParseError(domainsearch.ProviderTavily, err)
	}
	return &result, nil
}

func (a *TavilyAdapter) normalize(query domainsearch.Query, raw *tavilySearchResponse) *domainsearch.Response {
	limit := resultLimit(query)
	out := &domainsearch.Response{
		Results: make([]domainsearch.Result, 0, min(limit, len(raw.Results))),
	}

	for idx, item := range raw.Results {
		if len(out.Results) >= limit {
			break
		}
		url := strings.TrimSpace(item.URL)
		title := strings.TrimSpace(item.Title)
		if url == "" || title == "" {
			log.Warn().
				Str("provider", "tavily").
				Int("index", idx).
				Bool("has_title", title != "").
				Bool("has_url", url != "").
				Msg("dropping result missing essential fields")
			continue
		}
		out.Results = append(out.Results, domainsearch.Result{
			Title:   title,
			URL:     url,
			Snippet: strings.TrimSpace(item.Content),
			Source:  domainsearch.ProviderTavily,
		})
	}

	if query.IncludeAnswer {
		out.Answer = strings.TrimSpace(raw.Answer)
	}

	log.Debug().
		Str("provider", "tavily").
		Str("query", query.Text).
		Int("raw_count", len(raw.Results)).
		Int("result_count", len(out.Results)).
		Msg("tavily search completed")

	return out
}

// FetchWebpage retrieves page text via Tavily's extract endpoint.
func (a *TavilyAdapter) FetchWebpage(ctx context.Context, req domainsearch.FetchRequest) (*domainsearch.FetchResponse, error) {
	if err := a.breaker.Allow(); err != nil {
		log.Error().Str("provider", "tavily").Str("operation", "fetch").Msg("circuit breaker is open, skipping")
		return nil, err
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("fetch", "tavily", status)
		metrics.RecordExternalProviderLatency("tavily", time.Since(startTime).Seconds())
	}()

	resultPtr, err := WithRetry(ctx, a.retry, "tavily_extract", func() (*tavilyExtractResponse, error) {
		resp, err := a.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(map[string]any{
				"api_key": a.apiKey,
				"urls":    []string{req.URL},
			}).
			Post(a.extractEndpoint())
		if err != nil {
			return nil, classifyTransportError(domainsearch.ProviderTavily, err)
		}
		if resp.IsError() {
			return nil, domainsearch.NewBackendError(
				domainsearch.ProviderTavily, resp.StatusCode(), trimErrorBody(resp.Body()))
		}
		var result tavilyExtractResponse
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			return nil, domainsearch.NewParseError(domainsearch.ProviderTavily, err)
		}
		return &result, nil
	})

	a.breaker.RecordResult(err)
	if err != nil {
		status = "error"
		log.Error().Err(err).Str("provider", "tavily").Str("url", req.URL).Msg("tavily extract failed after retries")
		return nil, err
	}

	text := ""
	if len(resultPtr.Results) > 0 {
		text = firstNonEmpty(resultPtr.Results[0].RawContent, resultPtr.Results[0].Content)
	}
	return &domainsearch.FetchResponse{
		Text: strings.TrimSpace(text),
		Metadata: map[string]any{
			"source":   req.URL,
			"provider": "tavily",
		},
	}, nil
}

func (a *TavilyAdapter) extractEndpoint() string {
	if strings.Contains(a.endpoint, "/search") {
		return strings.Replace(a.endpoint, "/search", "/extract", 1)
	}
	return tavilyExtractEndpointDefault
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type tavilySearchResponse struct {
	Query   string               `json:"query"`
	Answer  string               `json:"answer"`
	Results []tavilySearchResult `json:"results"`
}

type tavilySearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type tavilyExtractResponse struct {
	Results []tavilyExtractResult `json:"results"`
}

type tavilyExtractResult struct {
	URL        string `json:"url"`
	Content    string `json:"content"`
	RawContent string `json:"raw_content"`
}
