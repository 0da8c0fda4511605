package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/metrics"
)

const searxngSearchPath = "/search"

// SearxngAdapter implements domainsearch.Adapter against a SearXNG
// instance's JSON search endpoint.
type SearxngAdapter struct {
	client  *resty.Client
	retry   RetryConfig
	breaker *CircuitBreaker
}

var _ domainsearch.Adapter = (*SearxngAdapter)(nil)

// NewSearxngAdapter wires an adapter for the SearXNG instance at baseURL.
func NewSearxngAdapter(baseURL string, opts ClientOptions) *SearxngAdapter {
	opts = opts.withDefaults()
	client := newRestyClient(opts).SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	return &SearxngAdapter{
		client:  client,
		retry:   opts.Retry,
		breaker: NewCircuitBreaker(string(domainsearch.ProviderSearxng), opts.Breaker),
	}
}

func (a *SearxngAdapter) Provider() domainsearch.Provider {
	return domainsearch.ProviderSearxng
}

// Search runs one query against SearXNG, retrying transient failures per
// the retry policy.
func (a *SearxngAdapter) Search(ctx context.Context, query domainsearch.Query) (*domainsearch.Response, error) {
	if err := a.breaker.Allow(); err != nil {
		log.Error().Str("provider", "searxng").Msg("circuit breaker is open, skipping")
		return nil, err
	}

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("search", "searxng", status)
		metrics.RecordExternalProviderLatency("searxng", time.Since(startTime).Seconds())
	}()

	resultPtr, err := WithRetry(ctx, a.retry, "searxng_search", func() (*searxngResponse, error) {
		return a.doSearch(ctx, query)
	})

	a.breaker.RecordResult(err)
	if err != nil {
		status = "error"
		log.Error().Err(err).Str("provider", "searxng").Str("query", query.Text).Msg("searxng search failed after retries")
		return nil, err
	}

	return a.normalize(query, resultPtr), nil
}

// doSearch is a single attempt: one GET, typed error classification.
func (a *SearxngAdapter) doSearch(ctx context.Context, query domainsearch.Query) (*searxngResponse, error) {
	req := a.client.R().
		SetContext(ctx).
		SetQueryParam("q", query.Text).
		SetQueryParam("format", "json").
		SetQueryParam("safesearch", "1")

	categories := "general"
	if len(query.Categories) > 0 {
		categories = strings.Join(query.Categories, ",")
	}
	req.SetQueryParam("categories", categories)

	if query.MaxResults > 0 {
		req.SetQueryParam("num", strconv.Itoa(query.MaxResults))
	}

	resp, err := req.Get(searxngSearchPath)
	if err != nil {
		return nil, classifyTransportError(domainsearch.ProviderSearxng, err)
	}
	if resp.IsError() {
		return nil, domainsearch.NewBackendError(
			domainsearch.ProviderSearxng, resp.StatusCode(), trimErrorBody(resp.Body()))
	}

	var result searxngResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, domainsearch.NewParseError(domainsearch.ProviderSearxng, err)
	}
	return &result, nil
}

// normalize maps the raw payload onto the gateway's result model, dropping
// entries without a usable URL or title.
func (a *SearxngAdapter) normalize(query domainsearch.Query, raw *searxngResponse) *domainsearch.Response {
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
				Str("provider", "searxng").
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
			Source:  domainsearch.ProviderSearxng,
		})
	}

	if query.IncludeAnswer && len(raw.Answers) > 0 {
		out.Answer = strings.TrimSpace(raw.Answers[0])
	}

	log.Debug().
		Str("provider", "searxng").
		Str("query", query.Text).
		Int("raw_count", len(raw.Results)).
		Int("result_count", len(out.Results)).
		Msg("searxng search completed")

	return out
}

type searxngResponse struct {
	Query           string          `json:"query"`
	NumberOfResults int             `json:"number_of_results"`
	Results         []searxngResult `json:"results"`
	Answers         []string        `json:"answers"`
	Corrections     []string        `json:"corrections"`
}

type searxngResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine"`
}
