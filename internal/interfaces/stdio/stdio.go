// Package stdio serves the MCP tool server over standard input/output,
// the transport used when the gateway runs as a subprocess of an MCP
// client. Logs go to stderr; stdout belongs to the protocol.
package stdio

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server runs an MCP server over stdio until the client disconnects or
// the context is cancelled.
type Server struct {
	mcpServer *mcp.Server
}

// NewServer wraps the tool server for stdio serving.
func NewServer(server *mcp.Server) *Server {
	return &Server{mcpServer: server}
}

// Run blocks serving the stdio session.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
