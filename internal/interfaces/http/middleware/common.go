package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request ID
const RequestIDKey = "request_id"

// RequestIDHeader carries the request ID in requests and responses
const RequestIDHeader = "X-Request-ID"

// MaxRequestIDLength bounds client supplied request IDs
const MaxRequestIDLength = 128

// RequestID adds a unique request ID to each request. Incoming IDs longer than
// MaxRequestIDLength are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns the settings used by the scanner frontends.
// AllowOrigins is empty, so cross-origin requests get no CORS headers until
// origins are configured via config.toml or WMS_HTTP_CORS_ALLOW_ORIGINS.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:     []string{},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", RequestIDHeader, "Accept", "Origin", "Cache-Control"},
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	shared      [][2]string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     cfg.AllowOrigins,
		wildcard:    slices.Contains(cfg.AllowOrigins, "*"),
		credentials: cfg.AllowCredentials,
		shared: [][2]string{
			{"Access-Control-Allow-Headers", strings.Join(cfg.AllowHeaders, ", ")},
			{"Access-Control-Allow-Methods", strings.Join(cfg.AllowMethods, ", ")},
		},
	}
	if len(cfg.ExposeHeaders) > 0 {
		p.shared = append(p.shared, [2]string{"Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", ")})
	}
	if cfg.MaxAge > 0 {
		p.shared = append(p.shared, [2]string{"Access-Control-Max-Age", strconv.Itoa(int(cfg.MaxAge.Seconds()))})
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin gets no CORS headers.
func (p corsPolicy) allow(origin string) string {
	switch {
	case len(p.origins) == 0:
		return ""
	case p.wildcard:
		return "*"
	case origin != "" && slices.Contains(p.origins, origin):
		return origin
	}
	return ""
}

func (p corsPolicy) apply(h http.Header, allowed string) {
	h.Set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		h.Add("Vary", "Origin")
		if p.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
	}
	for _, kv := range p.shared {
		h.Set(kv[0], kv[1])
	}
}

// CORSWithConfig answers cross-origin requests from the configured origins.
// Preflight requests always end with 204, with CORS headers only for allowed
// origins. Credentials are never granted to the "*" origin.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		if allowed := policy.allow(c.GetHeader("Origin")); allowed != "" {
			policy.apply(c.Writer.Header(), allowed)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SecurityConfig holds the security response headers. Zero values disable the
// matching header.
type SecurityConfig struct {
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityConfig returns header settings for a JSON API.
// HSTS is off until the server sits behind HTTPS.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		PermissionsPolicy:     "accelerometer=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
	}
}

// Secure adds security headers to responses using default configuration
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers to responses with custom configuration
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	headers := securityHeaders(cfg)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range headers {
			h.Set(kv[0], kv[1])
		}
		c.Next()
	}
}

func securityHeaders(cfg SecurityConfig) [][2]string {
	headers := [][2]string{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
	}
	if cfg.ContentSecurityPolicy != "" {
		headers = append(headers, [2]string{"Content-Security-Policy", cfg.ContentSecurityPolicy})
	}
	if cfg.PermissionsPolicy != "" {
		headers = append(headers, [2]string{"Permissions-Policy", cfg.PermissionsPolicy})
	}
	if cfg.HSTSMaxAge > 0 {
		hsts := "max-age=" + strconv.Itoa(int(cfg.HSTSMaxAge.Seconds()))
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		headers = append(headers, [2]string{"Strict-Transport-Security", hsts})
	}
	return headers
}
