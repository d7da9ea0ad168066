package server

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/surelook/holmes-mcp/internal/metrics"
)

// unknownLabel replaces client-supplied names that were never registered.
const unknownLabel = "unknown"

// observe logs tool calls and resource reads and records them in m when it
// is non-nil. Other methods pass through untouched.
func observe(m *metrics.Metrics, tools, schemes map[string]bool) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			switch r := req.(type) {
			case *mcp.CallToolRequest:
				start := time.Now()
				res, err := next(ctx, method, req)
				failed := err != nil
				if tr, ok := res.(*mcp.CallToolResult); ok && tr != nil && tr.IsError {
					failed = true
				}
				entry := log.WithFields(log.Fields{
					"tool":     r.Params.Name,
					"duration": time.Since(start),
				})
				if err != nil {
					entry.WithError(err).Warn("tool call failed")
				} else {
					entry.WithField("is_error", failed).Debug("tool call")
				}
				if m != nil {
					m.ObserveTool(knownLabel(r.Params.Name, tools), failed, time.Since(start))
				}
				return res, err

			case *mcp.ReadResourceRequest:
				res, err := next(ctx, method, req)
				scheme := knownLabel(uriScheme(r.Params.URI), schemes)
				log.WithFields(log.Fields{"uri": r.Params.URI, "failed": err != nil}).Debug("resource read")
				if m != nil {
					m.ObserveResource(scheme, err != nil)
				}
				return res, err
			}
			return next(ctx, method, req)
		}
	}
}

func knownLabel(name string, known map[string]bool) string {
	if known[name] {
		return name
	}
	return unknownLabel
}

func uriScheme(uri string) string {
	if scheme, _, ok := strings.Cut(uri, "://"); ok && scheme != "" {
		return scheme
	}
	return unknownLabel
}
