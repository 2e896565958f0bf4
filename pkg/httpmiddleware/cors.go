package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderFingerprint identifies an anonymous storefront client.
const HeaderFingerprint = "Fingerprint"

// CORSConfig configures cross-origin access for the storefront frontend.
type CORSConfig struct {
	// Origins lists allowed origins. Empty or "*" allows any origin.
	Origins []string
	// Headers lists the request headers browsers may send. Defaults to
	// Content-Type, Fingerprint and X-Request-ID.
	Headers          []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; zero omits it.
	MaxAge int
}

const corsMethods = "GET, POST, PUT, DELETE, OPTIONS"

// CORS answers preflight requests and decorates actual cross-origin responses.
// With credentials enabled a wildcard is never sent; the request origin is
// echoed instead.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	anyOrigin := len(cfg.Origins) == 0
	allowed := make(map[string]string, len(cfg.Origins))
	for _, o := range cfg.Origins {
		if o == "*" {
			anyOrigin = true
			continue
		}
		allowed[strings.ToLower(o)] = o
	}
	wildcard := anyOrigin && !cfg.AllowCredentials

	headers := cfg.Headers
	if len(headers) == 0 {
		headers = []string{"Content-Type", HeaderFingerprint, HeaderRequestID}
	}
	allowHeaders := strings.Join(headers, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if !wildcard {
			c.Writer.Header().Add("Vary", "Origin")
		}
		if origin == "" {
			c.Next()
			return
		}

		var allowOrigin string
		switch {
		case wildcard:
			allowOrigin = "*"
		case anyOrigin:
			allowOrigin = origin
		default:
			allowOrigin = allowed[strings.ToLower(origin)]
		}

		preflight := c.Request.Method == http.MethodOptions &&
			c.GetHeader("Access-Control-Request-Method") != ""
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Expose-Headers", HeaderRequestID)
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			if preflight {
				c.Header("Access-Control-Allow-Methods", corsMethods)
				c.Header("Access-Control-Allow-Headers", allowHeaders)
				if cfg.MaxAge > 0 {
					c.Header("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
		}
		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
