package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/surelook/holmes-mcp/internal/metrics"
)

const (
	// MCPPath is where the streamable HTTP transport is mounted.
	MCPPath = "/mcp"

	healthPath = "/health"
	// unmatchedPath labels requests no route matched.
	unmatchedPath = "unmatched"
)

// HTTPOptions configures the HTTP surface around the MCP server.
type HTTPOptions struct {
	// BearerToken, when set, is required on every MCP request.
	BearerToken string
	Metrics     *metrics.Metrics
}

// NewHTTPHandler mounts srv on a chi router with health and metrics
// endpoints.
func NewHTTPHandler(srv *mcp.Server, opts HTTPOptions) http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return srv
	}, nil)

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(opts.Metrics))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat(healthPath))

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(opts.BearerToken))
		r.Handle(MCPPath, mcpHandler)
		r.Handle(MCPPath+"/*", mcpHandler)
	})

	return r
}

// bearerAuth rejects requests without the configured token. An empty token
// disables the check.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		expected := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), expected) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="holmes-mcp"`)
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "invalid_token",
					"error_description": "missing or invalid bearer token",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs each request with its status and latency and records
// it in m when it is non-nil.
func requestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			path := routeLabel(r)
			elapsed := time.Since(start)

			log.WithFields(log.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"duration":   elapsed,
				"remote":     r.RemoteAddr,
				"request_id": chiMiddleware.GetReqID(r.Context()),
			}).Info("http request")

			if m != nil && path != "/metrics" {
				m.ObserveHTTP(r.Method, path, status, elapsed)
			}
		})
	}
}

// routeLabel returns the matched route pattern so metric labels stay
// bounded. The heartbeat answers before routing, so it is named explicitly.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if r.URL.Path == healthPath {
		return healthPath
	}
	return unmatchedPath
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
