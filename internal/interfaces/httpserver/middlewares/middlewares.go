package middlewares

import (
	"net/http"
	"strings"
	"sync"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// RequestLogger logs HTTP requests and their outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Int("status", c.Writer.Status()).
					Err(e.Err).
					Msg("request error")
			}
		}

		logEvent := log.Info()
		if c.Writer.Status() >= 400 {
			logEvent = log.Warn()
		}
		logEvent.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", c.Writer.Status()).
			Msg("request completed")
	}
}

// CORS allows cross-origin access to the gateway endpoints.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// JWKSAuth validates bearer tokens against a JWKS endpoint. Used only when
// AUTH_ENABLED is set; the JWKS is fetched lazily on first use so startup
// does not depend on the identity provider being reachable.
type JWKSAuth struct {
	jwksURL string
	issuer  string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

// NewJWKSAuth builds the auth middleware state.
func NewJWKSAuth(jwksURL, issuer string) *JWKSAuth {
	return &JWKSAuth{jwksURL: jwksURL, issuer: issuer}
}

// keyfunc returns the verification keyfunc, fetching the JWKS on first use.
// The mutex keeps concurrent first requests from racing on the fetch; a
// failed fetch leaves the field nil so a later request can retry.
func (a *JWKSAuth) keyfunc() (jwt.Keyfunc, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.jwks == nil {
		jwks, err := keyfunc.Get(a.jwksURL, keyfunc.Options{})
		if err != nil {
			return nil, err
		}
		a.jwks = jwks
	}
	return a.jwks.Keyfunc, nil
}

// Middleware returns the gin handler enforcing bearer auth.
func (a *JWKSAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		kf, err := a.keyfunc()
		if err != nil {
			log.Error().Err(err).Str("jwks_url", a.jwksURL).Msg("failed to fetch JWKS")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unable to verify token"})
			return
		}

		token, err := jwt.Parse(raw, kf, jwt.WithIssuer(a.issuer))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("auth_token", token)
		c.Next()
	}
}
