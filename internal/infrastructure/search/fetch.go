package search

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/metrics"
)

// FetchChain retrieves webpage text through the Tavily extract API, falling
// back to a direct HTTP fetch with markup stripped to visible text. Fetching
// is best-effort tooling around the search core, so here a provider failure
// does fall through, unlike search mode dispatch.
type FetchChain struct {
	extractor domainsearch.Fetcher
	fallback  *resty.Client
	retry     RetryConfig
}

var _ domainsearch.Fetcher = (*FetchChain)(nil)

// NewFetchChain builds the fetch chain. extractor may be nil, leaving only
// the direct fallback.
func NewFetchChain(extractor domainsearch.Fetcher, opts ClientOptions) *FetchChain {
	opts = opts.withDefaults()

	// Browser-like headers so plain pages do not bounce the fallback.
	fallback := resty.New().
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetTimeout(opts.HTTPTimeout).
		SetRetryCount(0)

	return &FetchChain{
		extractor: extractor,
		fallback:  fallback,
		retry:     opts.Retry,
	}
}

// FetchWebpage tries the extract provider first, then the direct fallback.
func (f *FetchChain) FetchWebpage(ctx context.Context, req domainsearch.FetchRequest) (*domainsearch.FetchResponse, error) {
	var lastErr error

	if f.extractor != nil {
		res, err := f.extractor.FetchWebpage(ctx, req)
		if err == nil && strings.TrimSpace(res.Text) != "" {
			return res, nil
		}
		lastErr = err
		log.Debug().Err(err).Str("url", req.URL).Msg("extract provider failed, trying direct fetch")
	}

	res, err := f.fetchDirect(ctx, req)
	if err == nil {
		return res, nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return nil, lastErr
}

func (f *FetchChain) fetchDirect(ctx context.Context, req domainsearch.FetchRequest) (*domainsearch.FetchResponse, error) {
	// Direct fetch gets a single retry; it is already the fallback.
	shortRetry := f.retry
	shortRetry.MaxAttempts = 2

	startTime := time.Now()
	status := "success"
	defer func() {
		metrics.RecordProviderRequest("fetch", "direct-http", status)
		metrics.RecordExternalProviderLatency("direct-http", time.Since(startTime).Seconds())
	}()

	result, err := WithRetry(ctx, shortRetry, "direct_fetch", func() (*domainsearch.FetchResponse, error) {
		resp, err := f.fallback.R().
			SetContext(ctx).
			Get(req.URL)
		if err != nil {
			return nil, classifyTransportError("direct-http", err)
		}
		if resp.IsError() {
			return nil, domainsearch.NewBackendError("direct-http", resp.StatusCode(), trimErrorBody(resp.Body()))
		}

		body := resp.Body()
		text := extractVisibleText(body)
		if text == "" {
			text = string(body)
		}

		return &domainsearch.FetchResponse{
			Text: text,
			Metadata: map[string]any{
				"source":       req.URL,
				"provider":     "direct-http",
				"content_type": resp.Header().Get("Content-Type"),
			},
		}, nil
	})

	if err != nil {
		status = "error"
		log.Error().Err(err).Str("url", req.URL).Msg("direct fetch failed after retries")
		return nil, err
	}
	return result, nil
}

// extractVisibleText strips markup, scripts and styles down to the page's
// visible text.
func extractVisibleText(htmlBytes []byte) string {
	doc, err := html.Parse(strings.NewReader(string(htmlBytes)))
	if err != nil {
		return ""
	}

	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			val := strings.TrimSpace(n.Data)
			if val != "" {
				if builder.Len() > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(val)
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return builder.String()
}
