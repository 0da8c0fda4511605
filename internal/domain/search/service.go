package search

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Adapter is the contract every backend client fulfils: one outbound
// request per call, normalized results, typed errors. Implementations live
// in the infrastructure layer and must be safe for concurrent use.
type Adapter interface {
	Search(ctx context.Context, query Query) (*Response, error)
	Provider() Provider
}

// Fetcher retrieves the text content of a webpage. Kept separate from
// Adapter because only some backends offer extraction.
type Fetcher interface {
	FetchWebpage(ctx context.Context, req FetchRequest) (*FetchResponse, error)
}

// Gateway dispatches normalized search requests to one or both adapters
// according to the mode fixed at startup. It holds no mutable state, so
// concurrent calls need no coordination.
type Gateway struct {
	primary   Adapter
	secondary Adapter
	fetcher   Fetcher
	mode      Mode
}

// NewGateway wires the gateway with its adapters in priority order. The
// fetcher may be nil when webpage fetching is disabled.
func NewGateway(primary, secondary Adapter, fetcher Fetcher, mode Mode) *Gateway {
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		fetcher:   fetcher,
		mode:      mode,
	}
}

// Mode returns the selection mode fixed at construction.
func (g *Gateway) Mode() Mode { return g.mode }

// Search runs one query through the configured selection mode.
//
// Single-provider modes surface the adapter's failure as
// SingleBackendFailed; there is no hidden fallback. Merge mode queries both
// adapters concurrently, keeps priority order, and collapses duplicate URLs
// onto the higher-priority provider.
func (g *Gateway) Search(ctx context.Context, query Query) (*Response, error) {
	switch g.mode {
	case ModePreferPrimary:
		return g.searchOne(ctx, g.primary, query)
	case ModePreferSecondary:
		return g.searchOne(ctx, g.secondary, query)
	default:
		return g.searchMerged(ctx, query)
	}
}

// ErrFetchDisabled is returned when webpage fetching was not wired in.
var ErrFetchDisabled = errors.New("webpage fetching is disabled")

// FetchWebpage proxies to the configured fetcher.
func (g *Gateway) FetchWebpage(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	if g.fetcher == nil {
		return nil, ErrFetchDisabled
	}
	return g.fetcher.FetchWebpage(ctx, req)
}

func (g *Gateway) searchOne(ctx context.Context, adapter Adapter, query Query) (*Response, error) {
	res, err := adapter.Search(ctx, query)
	if err != nil {
		log.Warn().
			Err(err).
			Str("provider", string(adapter.Provider())).
			Str("mode", string(g.mode)).
			Msg("selected backend failed")
		return nil, &GatewayError{Kind: ErrKindSingleBackendFailed, Errs: []error{err}}
	}
	return res, nil
}

type adapterOutcome struct {
	provider Provider
	res      *Response
	err      error
}

func (g *Gateway) searchMerged(ctx context.Context, query Query) (*Response, error) {
	run := func(adapter Adapter, out chan<- adapterOutcome) {
		res, err := adapter.Search(ctx, query)
		out <- adapterOutcome{provider: adapter.Provider(), res: res, err: err}
	}

	primaryCh := make(chan adapterOutcome, 1)
	secondaryCh := make(chan adapterOutcome, 1)
	go run(g.primary, primaryCh)
	go run(g.secondary, secondaryCh)

	first, second := <-primaryCh, <-secondaryCh

	if first.err != nil && second.err != nil {
		log.Warn().
			AnErr("primary_error", first.err).
			AnErr("secondary_error", second.err).
			Str("query", query.Text).
			Msg("all backends failed")
		return nil, &GatewayError{Kind: ErrKindAllBackendsFailed, Errs: []error{first.err, second.err}}
	}

	merged := &Response{}
	seen := make(map[string]struct{})
	appendResults := func(res *Response) {
		if res == nil {
			return
		}
		for _, r := range res.Results {
			key := normalizeURL(r.URL)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged.Results = append(merged.Results, r)
		}
		if merged.Answer == "" {
			merged.Answer = res.Answer
		}
		merged.Warnings = append(merged.Warnings, res.Warnings...)
	}

	for _, outcome := range []adapterOutcome{first, second} {
		if outcome.err != nil {
			log.Warn().
				Err(outcome.err).
				Str("provider", string(outcome.provider)).
				Msg("backend failed during merge, keeping remaining results")
			merged.Warnings = append(merged.Warnings,
				"provider "+string(outcome.provider)+" failed: "+outcome.err.Error())
			continue
		}
		appendResults(outcome.res)
	}

	log.Debug().
		Str("query", query.Text).
		Int("result_count", len(merged.Results)).
		Int("warning_count", len(merged.Warnings)).
		Msg("merge completed")

	return merged, nil
}

// normalizeURL canonicalizes a result URL for dedup purposes: lowercase
// scheme and host, no fragment, no trailing slash.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" && u.Path == "" {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/")
}
