package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"metasearch-gateway/internal/interfaces/httpserver/responses"
)

var allowedMCPMethods = map[string]bool{
	// Initialization / handshake
	"initialize":                true,
	"notifications/initialized": true,
	"ping":                      true,

	// Tools
	"tools/list": true,
	"tools/call": true,

	// Prompts / resources (harmless listings)
	"prompts/list":   true,
	"resources/list": true,
	"resources/read": true,
}

// MCPRoute exposes the MCP server over streamable HTTP.
type MCPRoute struct {
	mcpServer   *mcp.Server
	httpHandler http.Handler
}

// NewMCPRoute wraps the tool server in the go-sdk streamable HTTP handler.
func NewMCPRoute(server *mcp.Server) *MCPRoute {
	return &MCPRoute{
		mcpServer: server,
		httpHandler: mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
			return server
		}, &mcp.StreamableHTTPOptions{Stateless: true}),
	}
}

// RegisterRouter mounts the MCP endpoint on the given group.
func (route *MCPRoute) RegisterRouter(router *gin.RouterGroup) {
	router.POST("/mcp",
		MCPMethodGuard(allowedMCPMethods),
		route.serveMCP,
	)
}

// serveMCP streams Model Context Protocol responses using the underlying MCP server.
// @Summary MCP endpoint for search tool execution
// @Description Handles Model Context Protocol (MCP) requests over HTTP. Supports MCP methods: initialize, ping, tools/list, tools/call, prompts/list, resources/list, resources/read.
// @Description
// @Description **Available Tools:**
// @Description - `search`: Web search via the configured backends (params: q, max_results, search_depth, include_answer, categories). Returns normalized deduplicated results with citations.
// @Description - `fetch_webpage`: Fetch a webpage's visible text (params: url).
// @Tags MCP API
// @Accept json
// @Produce text/event-stream
// @Param request body object true "MCP JSON-RPC request payload (e.g., {\"jsonrpc\":\"2.0\",\"method\":\"tools/list\",\"id\":1})"
// @Success 200 {string} string "Streamed MCP response in SSE format"
// @Failure 400 {object} responses.ErrorResponse "Invalid MCP request payload or unsupported method"
// @Router /v1/mcp [post]
func (route *MCPRoute) serveMCP(reqCtx *gin.Context) {
	// Force acceptable content types for the go-sdk streamable handler even
	// if the client omits Accept.
	reqCtx.Request.Header.Set("Accept", "application/json, text/event-stream")
	route.httpHandler.ServeHTTP(reqCtx.Writer, reqCtx.Request)
}

// MCPMethodGuard rejects JSON-RPC methods outside the allowed set before
// they reach the MCP server.
func MCPMethodGuard(allowedMethods map[string]bool) gin.HandlerFunc {
	return func(reqCtx *gin.Context) {
		bodyBytes, err := io.ReadAll(reqCtx.Request.Body)
		if err != nil {
			reqCtx.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "unable to read request body"})
			return
		}
		reqCtx.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var payload struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(bodyBytes, &payload); err != nil || payload.Method == "" {
			reqCtx.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid MCP request payload"})
			return
		}
		if !allowedMethods[payload.Method] {
			reqCtx.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "unsupported MCP method: " + payload.Method})
			return
		}
		reqCtx.Next()
	}
}
