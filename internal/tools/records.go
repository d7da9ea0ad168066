package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/surelook/holmes-mcp/internal/models"
	"github.com/surelook/holmes-mcp/internal/records"
)

// RecordTools holds references needed by the session, identity and event
// tool handlers.
type RecordTools struct {
	Records *records.Service
}

// --- Input types ---

type ListSessionsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of sessions to return (default 10)"`
}

type GetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"ID of the session"`
}

type ListIdentitiesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of identities to return (default 10)"`
}

type GetIdentityInput struct {
	IdentityID string `json:"identity_id" jsonschema:"ID of the identity"`
}

type UpdateIdentityInput struct {
	IdentityID         string         `json:"identity_id" jsonschema:"ID of the identity to update"`
	Name               *string        `json:"name,omitempty" jsonschema:"New display name"`
	RelationshipStatus *string        `json:"relationship_status,omitempty" jsonschema:"Relationship to the wearer (e.g. friend, colleague, acquaintance)"`
	LinkedInURL        *string        `json:"linkedin_url,omitempty" jsonschema:"LinkedIn profile URL"`
	Metadata           map[string]any `json:"metadata,omitempty" jsonschema:"Free-form metadata; replaces the stored object"`
}

type GetEventsInput struct {
	SessionID string `json:"session_id" jsonschema:"ID of the session"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of events to return (default 50)"`
}

type CreateEventInput struct {
	Type              string `json:"type" jsonschema:"Event type: IDENTITY_DETECTED, IDENTITY_CONFIRMED, CONVERSATION_NOTE, SESSION_STARTED or SESSION_ENDED"`
	Content           string `json:"content" jsonschema:"Event content"`
	SessionID         string `json:"session_id,omitempty" jsonschema:"Optional session the event belongs to"`
	RelatedIdentityID string `json:"related_identity_id,omitempty" jsonschema:"Optional identity the event is about"`
}

type GetNotesInput struct {
	IdentityID string `json:"identity_id" jsonschema:"ID of the identity"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of notes to return (default 10)"`
}

// --- Handlers ---

func (t *RecordTools) ListSessions(ctx context.Context, _ *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Records.ListSessions(ctx, input.Limit)
	if err != nil {
		return failure("list_sessions", true, err)
	}
	return toolJSON(rows)
}

func (t *RecordTools) GetSession(ctx context.Context, _ *mcp.CallToolRequest, input GetSessionInput) (*mcp.CallToolResult, any, error) {
	row, err := t.Records.GetSession(ctx, input.SessionID)
	if err != nil {
		return failure("get_session", false, err)
	}
	return toolJSON(row)
}

func (t *RecordTools) ListIdentities(ctx context.Context, _ *mcp.CallToolRequest, input ListIdentitiesInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Records.ListIdentities(ctx, input.Limit)
	if err != nil {
		return failure("list_identities", true, err)
	}
	return toolJSON(rows)
}

func (t *RecordTools) GetIdentity(ctx context.Context, _ *mcp.CallToolRequest, input GetIdentityInput) (*mcp.CallToolResult, any, error) {
	row, err := t.Records.GetIdentity(ctx, input.IdentityID)
	if err != nil {
		return failure("get_identity", false, err)
	}
	return toolJSON(row)
}

func (t *RecordTools) UpdateIdentity(ctx context.Context, _ *mcp.CallToolRequest, input UpdateIdentityInput) (*mcp.CallToolResult, any, error) {
	row, err := t.Records.UpdateIdentity(ctx, input.IdentityID, models.IdentityUpdate{
		Name:               input.Name,
		RelationshipStatus: input.RelationshipStatus,
		LinkedInURL:        input.LinkedInURL,
		Metadata:           input.Metadata,
	})
	if err != nil {
		return failure("update_identity", false, err)
	}
	return toolJSON(row)
}

func (t *RecordTools) GetEvents(ctx context.Context, _ *mcp.CallToolRequest, input GetEventsInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Records.GetEvents(ctx, input.SessionID, input.Limit)
	if err != nil {
		return failure("get_events", true, err)
	}
	return toolJSON(rows)
}

func (t *RecordTools) CreateEvent(ctx context.Context, _ *mcp.CallToolRequest, input CreateEventInput) (*mcp.CallToolResult, any, error) {
	row, err := t.Records.CreateEvent(ctx, models.NewEvent{
		Type:              input.Type,
		Content:           input.Content,
		SessionID:         input.SessionID,
		RelatedIdentityID: input.RelatedIdentityID,
	})
	if err != nil {
		return failure("create_event", false, err)
	}
	return toolJSON(row)
}

func (t *RecordTools) GetNotes(ctx context.Context, _ *mcp.CallToolRequest, input GetNotesInput) (*mcp.CallToolResult, any, error) {
	rows, err := t.Records.GetNotes(ctx, input.IdentityID, input.Limit)
	if err != nil {
		return failure("get_notes", true, err)
	}
	return toolJSON(rows)
}
