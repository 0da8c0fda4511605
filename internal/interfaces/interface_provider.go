package interfaces

import (
	"github.com/google/wire"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/infrastructure/config"
	"metasearch-gateway/internal/interfaces/httpserver"
	mcproute "metasearch-gateway/internal/interfaces/httpserver/routes/mcp"
	restroute "metasearch-gateway/internal/interfaces/httpserver/routes/rest"
	"metasearch-gateway/internal/interfaces/stdio"
)

// InterfacesProvider provides both serving surfaces around the shared MCP
// tool server, plus the plain REST search endpoint.
var InterfacesProvider = wire.NewSet(
	ProvideSearchMCP,
	mcproute.NewToolServer,
	mcproute.NewMCPRoute,
	restroute.NewSearchRoute,
	httpserver.NewHTTPServer,
	stdio.NewServer,
)

// ProvideSearchMCP maps configuration onto the MCP tool handler.
func ProvideSearchMCP(cfg *config.Config, gateway *domainsearch.Gateway) *mcproute.SearchMCP {
	return mcproute.NewSearchMCP(gateway, mcproute.SearchMCPConfig{
		MaxSnippetChars:      cfg.MaxSnippetChars,
		MaxFetchPreviewChars: cfg.MaxFetchPreviewChars,
		MaxFetchTextChars:    cfg.MaxFetchTextChars,
		EnableFetchWebpage:   cfg.EnableFetchWebpage,
	})
}
