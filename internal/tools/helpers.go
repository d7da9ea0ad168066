package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/surelook/holmes-mcp/internal/models"
	"github.com/surelook/holmes-mcp/internal/records"
	"github.com/surelook/holmes-mcp/internal/store"
)

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorPayload returns the structured error value as the tool result. List
// tools wrap it in a one-element array.
func errorPayload(msg string, asList bool) (*mcp.CallToolResult, any, error) {
	var v any = models.ErrorPayload{Error: msg}
	if asList {
		v = []models.ErrorPayload{{Error: msg}}
	}
	res, _, _ := toolJSON(v)
	res.IsError = true
	return res, nil, nil
}

// failure maps a records error to a tool result. An unavailable store and
// local validation produce the structured error value; anything the store
// itself reported is passed through as a tool error.
func failure(tool string, asList bool, err error) (*mcp.CallToolResult, any, error) {
	if errors.Is(err, store.ErrUnavailable) {
		return errorPayload(err.Error(), asList)
	}
	if errors.Is(err, records.ErrNoUpdates) {
		return errorPayload("No updates provided", asList)
	}
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		return errorPayload(verr.Error(), asList)
	}
	log.WithError(err).WithField("tool", tool).Warn("store operation failed")
	return toolError("%s failed: %v", tool, err), nil, nil
}
