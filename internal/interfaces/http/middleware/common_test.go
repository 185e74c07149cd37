package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveWith(mw gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := gin.New()
	r.Use(mw)
	r.GET("/api/v1/clients", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	t.Run("generates request ID", func(t *testing.T) {
		w := serveWith(RequestID(), httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
		req.Header.Set(RequestIDHeader, "scanner-7-000123")
		w := serveWith(RequestID(), req)

		assert.Equal(t, "scanner-7-000123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "scanner-7-000123", w.Body.String())
	})

	t.Run("replaces oversized request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", MaxRequestIDLength+1))
		w := serveWith(RequestID(), req)

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.NotContains(t, id, "xxx")
	})
}

func TestCORSWithConfig(t *testing.T) {
	scanner := CORSConfig{
		AllowOrigins:     []string{"http://scanner.local", "http://dock.local"},
		AllowMethods:     []string{"GET", "POST", "PUT"},
		AllowHeaders:     []string{"Content-Type", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           90 * time.Minute,
	}
	wildcard := scanner
	wildcard.AllowOrigins = []string{"*"}

	tests := []struct {
		name            string
		cfg             CORSConfig
		method          string
		origin          string
		wantCode        int
		wantOrigin      string
		wantCredentials string
	}{
		{"listed origin", scanner, http.MethodGet, "http://dock.local", http.StatusOK, "http://dock.local", "true"},
		{"unlisted origin", scanner, http.MethodGet, "http://evil.example", http.StatusOK, "", ""},
		{"same origin", scanner, http.MethodGet, "", http.StatusOK, "", ""},
		{"empty whitelist", DefaultCORSConfig(), http.MethodGet, "http://scanner.local", http.StatusOK, "", ""},
		{"wildcard drops credentials", wildcard, http.MethodGet, "http://any.example", http.StatusOK, "*", ""},
		{"preflight listed origin", scanner, http.MethodOptions, "http://scanner.local", http.StatusNoContent, "http://scanner.local", "true"},
		{"preflight unlisted origin", scanner, http.MethodOptions, "http://evil.example", http.StatusNoContent, "", ""},
		{"preflight empty whitelist", DefaultCORSConfig(), http.MethodOptions, "http://scanner.local", http.StatusNoContent, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/clients", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := serveWith(CORSWithConfig(tt.cfg), req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
			if tt.wantOrigin == "" {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}

	t.Run("shared headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/clients", nil)
		req.Header.Set("Origin", "http://scanner.local")
		w := serveWith(CORSWithConfig(scanner), req)

		assert.Equal(t, "GET, POST, PUT", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, X-Request-ID", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "5400", w.Header().Get("Access-Control-Max-Age"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	})
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Empty(t, cfg.AllowOrigins)
	assert.Contains(t, cfg.AllowMethods, "PUT")
	assert.Contains(t, cfg.AllowHeaders, RequestIDHeader)
	assert.Contains(t, cfg.ExposeHeaders, "X-RateLimit-Remaining")
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestSecureWithConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SecurityConfig
		want    map[string]string
		missing []string
	}{
		{
			name: "defaults",
			cfg:  DefaultSecurityConfig(),
			want: map[string]string{
				"X-Frame-Options":         "DENY",
				"X-Content-Type-Options":  "nosniff",
				"Referrer-Policy":         "strict-origin-when-cross-origin",
				"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
			},
			missing: []string{"Strict-Transport-Security"},
		},
		{
			name: "hsts with subdomains",
			cfg:  SecurityConfig{HSTSMaxAge: 365 * 24 * time.Hour, HSTSIncludeSubdomains: true},
			want: map[string]string{
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
			},
			missing: []string{"Content-Security-Policy", "Permissions-Policy"},
		},
		{
			name: "hsts only",
			cfg:  SecurityConfig{HSTSMaxAge: time.Hour},
			want: map[string]string{"Strict-Transport-Security": "max-age=3600"},
		},
		{
			name: "zero config keeps baseline headers",
			cfg:  SecurityConfig{},
			want: map[string]string{"X-Frame-Options": "DENY"},
			missing: []string{
				"Content-Security-Policy", "Permissions-Policy", "Strict-Transport-Security",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveWith(SecureWithConfig(tt.cfg), httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			for header, value := range tt.want {
				assert.Equal(t, value, w.Header().Get(header), header)
			}
			for _, header := range tt.missing {
				assert.Empty(t, w.Header().Get(header), header)
			}
		})
	}
}

func TestSecure(t *testing.T) {
	w := serveWith(Secure(), httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))
	assert.Contains(t, w.Header().Get("Permissions-Policy"), "geolocation=()")
}
