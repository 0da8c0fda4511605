package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainsearch "metasearch-gateway/internal/domain/search"
)

// ErrorResponse is the JSON error envelope for plain HTTP endpoints.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"-"`
}

// StatusForError maps the gateway error taxonomy onto HTTP status codes.
// Backend trouble is the upstream's fault (502/504); parse failures are
// ours (500); everything unknown stays 500.
func StatusForError(err error) int {
	var adErr *domainsearch.AdapterError
	if errors.As(err, &adErr) {
		switch adErr.Kind {
		case domainsearch.ErrKindTimeout:
			return http.StatusGatewayTimeout
		case domainsearch.ErrKindBackendFailure:
			return http.StatusBadGateway
		default:
			return http.StatusInternalServerError
		}
	}

	var gwErr *domainsearch.GatewayError
	if errors.As(err, &gwErr) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// KindForError extracts the taxonomy tag for the envelope.
func KindForError(err error) string {
	var adErr *domainsearch.AdapterError
	if errors.As(err, &adErr) {
		return string(adErr.Kind)
	}
	var gwErr *domainsearch.GatewayError
	if errors.As(err, &gwErr) {
		return string(gwErr.Kind)
	}
	return ""
}

// HandleError writes a typed error envelope and aborts the request.
func HandleError(reqCtx *gin.Context, err error, message string) {
	reqCtx.Error(err)
	reqCtx.AbortWithStatusJSON(StatusForError(err), ErrorResponse{
		Error: message,
		Kind:  KindForError(err),
	})
}
