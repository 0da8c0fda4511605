package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	domainsearch "metasearch-gateway/internal/domain/search"
	"metasearch-gateway/internal/interfaces/httpserver/responses"
)

// SearchRoute exposes the gateway as a plain JSON endpoint for clients that
// do not speak MCP (debugging, dashboards, curl).
type SearchRoute struct {
	gateway *domainsearch.Gateway
}

// NewSearchRoute wraps the gateway for REST serving.
func NewSearchRoute(gateway *domainsearch.Gateway) *SearchRoute {
	return &SearchRoute{gateway: gateway}
}

// RegisterRouter mounts the search endpoint on the given group.
func (route *SearchRoute) RegisterRouter(router *gin.RouterGroup) {
	router.GET("/search", route.search)
}

// search runs one query through the gateway and returns the normalized response.
// @Summary Search the configured backends
// @Description Runs a query through the gateway's selection mode (prefer_primary, prefer_secondary or merge) and returns normalized, deduplicated results.
// @Tags Search API
// @Produce json
// @Param q query string true "Query text"
// @Param max_results query int false "Maximum number of results"
// @Param include_answer query bool false "Include a provider-generated direct answer when available"
// @Param categories query string false "Comma-separated category tags"
// @Success 200 {object} domainsearch.Response
// @Failure 400 {object} responses.ErrorResponse "Missing or empty q parameter"
// @Failure 502 {object} responses.ErrorResponse "Backend failure"
// @Failure 504 {object} responses.ErrorResponse "Backend timeout"
// @Router /v1/search [get]
func (route *SearchRoute) search(reqCtx *gin.Context) {
	query := domainsearch.Query{
		Text: strings.TrimSpace(reqCtx.Query("q")),
	}
	if query.Text == "" {
		reqCtx.AbortWithStatusJSON(http.StatusBadRequest, responses.ErrorResponse{Error: "a non-empty 'q' parameter is required"})
		return
	}

	if n, err := strconv.Atoi(reqCtx.Query("max_results")); err == nil && n > 0 {
		query.MaxResults = n
	}
	if include, err := strconv.ParseBool(reqCtx.Query("include_answer")); err == nil {
		query.IncludeAnswer = include
	}
	if categories := strings.TrimSpace(reqCtx.Query("categories")); categories != "" {
		query.Categories = strings.Split(categories, ",")
	}

	log.Info().
		Str("route", "search").
		Str("query", query.Text).
		Msg("REST search request received")

	res, err := route.gateway.Search(reqCtx.Request.Context(), query)
	if err != nil {
		responses.HandleError(reqCtx, err, "search failed")
		return
	}
	reqCtx.JSON(http.StatusOK, res)
}
