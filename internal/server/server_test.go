package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surelook/holmes-mcp/internal/metrics"
	"github.com/surelook/holmes-mcp/internal/records"
	"github.com/surelook/holmes-mcp/internal/store"
)

func connect(t *testing.T, srv *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err := srv.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestObserveRecordsToolAndResource(t *testing.T) {
	m := metrics.New()
	srv := New(Deps{Records: records.New(store.NewLazy(nil)), Metrics: m})
	session := connect(t, srv)
	ctx := context.Background()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "list_sessions", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "greeting://Watson"})
	require.NoError(t, err)

	body := scrape(t, m)
	assert.Contains(t, body, `holmes_tool_calls_total{outcome="error",tool="list_sessions"} 1`)
	assert.Contains(t, body, `holmes_resource_reads_total{outcome="ok",scheme="greeting"} 1`)
}

func TestNewWithoutMetrics(t *testing.T) {
	srv := New(Deps{Records: records.New(store.NewLazy(nil))})
	session := connect(t, srv)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: "who_is_this", Arguments: map[string]any{"linkedin_url": "https://www.linkedin.com/in/x"}})
	require.NoError(t, err)
	assert.True(t, res.IsError, "no provider configured")
}

func TestURIScheme(t *testing.T) {
	assert.Equal(t, "greeting", uriScheme("greeting://Ada"))
	assert.Equal(t, "system", uriScheme("system://info"))
	assert.Equal(t, "unknown", uriScheme("no-scheme"))
	assert.Equal(t, "unknown", uriScheme("://x"))
}

func newTestHTTP(token string) (http.Handler, *metrics.Metrics) {
	m := metrics.New()
	srv := New(Deps{Records: records.New(store.NewLazy(nil)), Metrics: m})
	return NewHTTPHandler(srv, HTTPOptions{BearerToken: token, Metrics: m}), m
}

func TestHTTPHealth(t *testing.T) {
	h, _ := newTestHTTP("secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health needs no token")
}

func TestHTTPMetricsEndpoint(t *testing.T) {
	h, _ := newTestHTTP("")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `holmes_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestHTTPBearerRequired(t *testing.T) {
	h, m := newTestHTTP("secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong token", "Bearer nope"},
		{"wrong scheme", "Basic secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, MCPPath, strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Contains(t, rec.Body.String(), "invalid_token")
		})
	}
	assert.Contains(t, scrape(t, m), `status="401"`)
}

func TestBearerAuthPassesValidToken(t *testing.T) {
	called := false
	h := bearerAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, MCPPath, nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBearerAuthDisabled(t *testing.T) {
	called := false
	h := bearerAuth("")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, MCPPath, nil))
	assert.True(t, called)
}

func TestUnregisteredNamesShareOneLabel(t *testing.T) {
	m := metrics.New()
	srv := New(Deps{Records: records.New(store.NewLazy(nil)), Metrics: m})
	session := connect(t, srv)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		// The call itself fails; only the label matters here.
		session.CallTool(ctx, &mcp.CallToolParams{Name: "no_such_tool_" + strconv.Itoa(i), Arguments: map[string]any{}})
		session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "scheme" + strconv.Itoa(i) + "://x"})
	}

	body := scrape(t, m)
	assert.NotContains(t, body, "no_such_tool")
	assert.NotContains(t, body, `scheme="scheme0"`)
	assert.Contains(t, body, `tool="unknown"`)
	assert.Contains(t, body, `scheme="unknown"`)

	n, err := testutil.GatherAndCount(m.Registry, "holmes_tool_calls_total")
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 2, "one series per outcome at most")
}

func TestHTTPUnmatchedPathsShareOneLabel(t *testing.T) {
	h, m := newTestHTTP("")
	for i := 0; i < 50; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/scan/"+strconv.Itoa(i), nil))
	}

	n, err := testutil.GatherAndCount(m.Registry, "holmes_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, scrape(t, m), `holmes_http_requests_total{method="GET",path="unmatched",status="404"} 50`)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, healthPath, routeLabel(httptest.NewRequest(http.MethodGet, "/health", nil)))
	assert.Equal(t, unmatchedPath, routeLabel(httptest.NewRequest(http.MethodGet, "/anything", nil)))
}
