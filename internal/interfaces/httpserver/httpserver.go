package httpserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"metasearch-gateway/internal/infrastructure/config"
	"metasearch-gateway/internal/interfaces/httpserver/middlewares"
	mcproute "metasearch-gateway/internal/interfaces/httpserver/routes/mcp"
	restroute "metasearch-gateway/internal/interfaces/httpserver/routes/rest"
)

// HTTPServer serves the MCP endpoint plus health and metrics.
type HTTPServer struct {
	router *gin.Engine
	port   string
}

// NewHTTPServer assembles the gin router with the standard middleware
// chain and mounts the MCP and REST routes under /v1.
func NewHTTPServer(cfg *config.Config, mcpRoute *mcproute.MCPRoute, searchRoute *restroute.SearchRoute) *HTTPServer {
	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger())
	router.Use(middlewares.CORS())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "metasearch-gateway"})
	})
	router.GET("/readyz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ready", "service": "metasearch-gateway"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	if cfg.AuthEnabled {
		auth := middlewares.NewJWKSAuth(cfg.AuthJWKSURL, cfg.AuthIssuer)
		v1.Use(auth.Middleware())
	}
	mcpRoute.RegisterRouter(v1)
	searchRoute.RegisterRouter(v1)

	return &HTTPServer{
		router: router,
		port:   cfg.HTTPPort,
	}
}

// Run blocks serving HTTP until the listener fails.
func (s *HTTPServer) Run() error {
	addr := fmt.Sprintf(":%s", s.port)
	log.Info().Str("address", addr).Msg("HTTP server listening")
	return s.router.Run(addr)
}

// Router exposes the underlying engine for tests.
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}
