package search

import "strings"

// Provider identifies which backend produced a result.
type Provider string

const (
	// ProviderSearxng tags results from the self-hosted SearXNG instance.
	ProviderSearxng Provider = "searxng"
	// ProviderTavily tags results from the hosted Tavily API.
	ProviderTavily Provider = "tavily"
)

// Mode selects which adapters the gateway consults for a query.
type Mode string

const (
	// ModePreferPrimary queries only the primary provider; its failure is
	// surfaced, never silently papered over by the secondary.
	ModePreferPrimary Mode = "prefer_primary"
	// ModePreferSecondary queries only the secondary provider.
	ModePreferSecondary Mode = "prefer_secondary"
	// ModeMerge queries both providers concurrently and merges their output.
	ModeMerge Mode = "merge"
)

// ParseMode maps a configuration string onto a Mode. An empty string keeps
// the merge default.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModePreferPrimary:
		return ModePreferPrimary, true
	case ModePreferSecondary:
		return ModePreferSecondary, true
	case ModeMerge, "":
		return ModeMerge, true
	default:
		return "", false
	}
}

// Depth controls how thorough a provider search is, for providers that
// distinguish (Tavily's basic/advanced).
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Query is a normalized search request. It is built per call and never
// mutated by the gateway or the adapters.
type Query struct {
	Text          string   `json:"q"`
	MaxResults    int      `json:"max_results,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Depth         Depth    `json:"search_depth,omitempty"`
	IncludeAnswer bool     `json:"include_answer,omitempty"`
}

// Result is a single normalized search hit, independent of the provider
// that produced it. URL and Source are always non-empty on results the
// gateway surfaces.
type Result struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Snippet string   `json:"snippet,omitempty"`
	Source  Provider `json:"source"`
}

// Response is the gateway's answer to one query.
type Response struct {
	Results []Result `json:"results"`
	// Answer carries a provider-generated direct answer when one was
	// requested and available.
	Answer string `json:"answer,omitempty"`
	// Warnings annotates partial degradation, e.g. one side of a merge
	// failing while the other produced results.
	Warnings []string `json:"warnings,omitempty"`
}

// FetchRequest asks for the text content of a single webpage.
type FetchRequest struct {
	URL string `json:"url"`
}

// FetchResponse carries extracted page text plus provenance metadata.
type FetchResponse struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
