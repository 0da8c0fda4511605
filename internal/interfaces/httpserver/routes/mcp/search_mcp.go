package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/metrics"
)

// Tool key constants
const (
	ToolKeySearch       = "search"
	ToolKeyFetchWebpage = "fetch_webpage"
)

// SearchArgs defines the arguments for the search tool.
type SearchArgs struct {
	Q             string   `json:"q"`
	MaxResults    *int     `json:"max_results,omitempty"`
	SearchDepth   *string  `json:"search_depth,omitempty"`
	IncludeAnswer *bool    `json:"include_answer,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// FetchArgs defines the arguments for the fetch_webpage tool.
type FetchArgs struct {
	URL string `json:"url"`
}

type searchToolResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Source   string `json:"source"`
}

type searchToolPayload struct {
	Query     string             `json:"query"`
	Mode      string             `json:"mode"`
	Results   []searchToolResult `json:"results"`
	Answer    string             `json:"answer,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
	Citations []string           `json:"citations"`
}

type fetchToolPayload struct {
	SourceURL   string         `json:"source_url"`
	Text        string         `json:"text"`
	TextPreview string         `json:"text_preview"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SearchMCP registers the gateway's MCP tools.
type SearchMCP struct {
	gateway              *domainsearch.Gateway
	maxSnippetChars      int
	maxFetchPreviewChars int
	maxFetchTextChars    int
	enableFetchWebpage   bool
}

// SearchMCPConfig contains configuration for SearchMCP.
type SearchMCPConfig struct {
	MaxSnippetChars      int
	MaxFetchPreviewChars int
	MaxFetchTextChars    int
	EnableFetchWebpage   bool
}

// NewSearchMCP creates the MCP handler around the gateway.
func NewSearchMCP(gateway *domainsearch.Gateway, cfg SearchMCPConfig) *SearchMCP {
	maxSnippet := cfg.MaxSnippetChars
	if maxSnippet <= 0 {
		maxSnippet = 5000
	}
	maxPreview := cfg.MaxFetchPreviewChars
	if maxPreview <= 0 {
		maxPreview = 600
	}
	maxText := cfg.MaxFetchTextChars
	if maxText <= 0 {
		maxText = 50000
	}

	return &SearchMCP{
		gateway:              gateway,
		maxSnippetChars:      maxSnippet,
		maxFetchPreviewChars: maxPreview,
		maxFetchTextChars:    maxText,
		enableFetchWebpage:   cfg.EnableFetchWebpage,
	}
}

// NewToolServer builds the MCP server with all gateway tools registered.
// Both the HTTP route and the stdio transport serve this instance.
func NewToolServer(searchMCP *SearchMCP) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "metasearch-gateway",
		Version: "1.0.0",
	}, nil)
	searchMCP.RegisterTools(server)
	return server
}

// RegisterTools registers the search tools with the MCP server.
func (s *SearchMCP) RegisterTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolKeySearch,
		Description: "Search the web through the configured backends (SearXNG and/or Tavily) and return normalized, deduplicated results with citations.",
	}, s.handleSearch)

	if s.enableFetchWebpage {
		mcp.AddTool(server, &mcp.Tool{
			Name:        ToolKeyFetchWebpage,
			Description: "Fetch a webpage and return its visible text content.",
		}, s.handleFetch)
	}
}

func (s *SearchMCP) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchArgs) (*mcp.CallToolResult, searchToolPayload, error) {
	startTime := time.Now()

	query := domainsearch.Query{
		Text:       strings.TrimSpace(input.Q),
		Categories: input.Categories,
	}
	if query.Text == "" {
		metrics.RecordToolCall(ToolKeySearch, "invalid", time.Since(startTime).Seconds())
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "a non-empty 'q' parameter is required"}},
			IsError: true,
		}, searchToolPayload{}, nil
	}
	if input.MaxResults != nil && *input.MaxResults > 0 {
		query.MaxResults = *input.MaxResults
	}
	if input.SearchDepth != nil {
		query.Depth = domainsearch.Depth(strings.ToLower(*input.SearchDepth))
	}
	if input.IncludeAnswer != nil {
		query.IncludeAnswer = *input.IncludeAnswer
	}

	log.Info().
		Str("tool", ToolKeySearch).
		Str("query", query.Text).
		Str("mode", string(s.gateway.Mode())).
		Msg("MCP tool call received")

	res, err := s.gateway.Search(ctx, query)
	if err != nil {
		metrics.RecordToolCall(ToolKeySearch, "error", time.Since(startTime).Seconds())
		log.Warn().Err(err).Str("tool", ToolKeySearch).Str("query", query.Text).Msg("search tool failed")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "search failed: " + err.Error()}},
			IsError: true,
		}, searchToolPayload{Query: query.Text, Mode: string(s.gateway.Mode())}, nil
	}

	payload := searchToolPayload{
		Query:     query.Text,
		Mode:      string(s.gateway.Mode()),
		Results:   make([]searchToolResult, 0, len(res.Results)),
		Answer:    res.Answer,
		Warnings:  res.Warnings,
		Citations: make([]string, 0, len(res.Results)),
	}
	for idx, r := range res.Results {
		payload.Results = append(payload.Results, searchToolResult{
			Position: idx + 1,
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  truncate(r.Snippet, s.maxSnippetChars),
			Source:   string(r.Source),
		})
		payload.Citations = append(payload.Citations, r.URL)
	}

	metrics.RecordToolCall(ToolKeySearch, "success", time.Since(startTime).Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: renderSearchText(payload)}},
	}, payload, nil
}

func (s *SearchMCP) handleFetch(ctx context.Context, req *mcp.CallToolRequest, input FetchArgs) (*mcp.CallToolResult, fetchToolPayload, error) {
	startTime := time.Now()

	target := strings.TrimSpace(input.URL)
	if target == "" {
		metrics.RecordToolCall(ToolKeyFetchWebpage, "invalid", time.Since(startTime).Seconds())
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "a non-empty 'url' parameter is required"}},
			IsError: true,
		}, fetchToolPayload{}, nil
	}

	log.Info().
		Str("tool", ToolKeyFetchWebpage).
		Str("url", target).
		Msg("MCP tool call received")

	res, err := s.gateway.FetchWebpage(ctx, domainsearch.FetchRequest{URL: target})
	if err != nil {
		metrics.RecordToolCall(ToolKeyFetchWebpage, "error", time.Since(startTime).Seconds())
		log.Warn().Err(err).Str("tool", ToolKeyFetchWebpage).Str("url", target).Msg("fetch tool failed")
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "fetch failed: " + err.Error()}},
			IsError: true,
		}, fetchToolPayload{SourceURL: target}, nil
	}

	text := truncate(res.Text, s.maxFetchTextChars)
	payload := fetchToolPayload{
		SourceURL:   target,
		Text:        text,
		TextPreview: truncate(text, s.maxFetchPreviewChars),
		Metadata:    res.Metadata,
	}

	metrics.RecordToolCall(ToolKeyFetchWebpage, "success", time.Since(startTime).Seconds())
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, payload, nil
}

// renderSearchText flattens the structured payload into readable text for
// clients that only consume text content.
func renderSearchText(payload searchToolPayload) string {
	var b strings.Builder
	if payload.Answer != "" {
		b.WriteString("Answer:\n")
		b.WriteString(payload.Answer)
		b.WriteString("\n\n")
	}
	if len(payload.Results) == 0 {
		b.WriteString("No results were found for your query.")
		return b.String()
	}
	b.WriteString("Search Results:\n")
	for _, r := range payload.Results {
		b.WriteString("\n")
		b.WriteString(r.Title)
		b.WriteString("\n")
		b.WriteString(r.URL)
		if r.Snippet != "" {
			b.WriteString("\n")
			b.WriteString(r.Snippet)
		}
		b.WriteString("\n")
	}
	for _, w := range payload.Warnings {
		b.WriteString("\nWarning: ")
		b.WriteString(w)
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
