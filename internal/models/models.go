package models

import (
	"fmt"
	"strings"
)

// EventType is the category tag stored in events.type.
type EventType string

const (
	EventIdentityDetected  EventType = "IDENTITY_DETECTED"
	EventIdentityConfirmed EventType = "IDENTITY_CONFIRMED"
	EventConversationNote  EventType = "CONVERSATION_NOTE"
	EventSessionStarted    EventType = "SESSION_STARTED"
	EventSessionEnded      EventType = "SESSION_ENDED"
)

// EventTypes lists every accepted category tag.
var EventTypes = []EventType{
	EventIdentityDetected,
	EventIdentityConfirmed,
	EventConversationNote,
	EventSessionStarted,
	EventSessionEnded,
}

// ParseEventType checks s against the category tags.
func ParseEventType(s string) (EventType, error) {
	for _, t := range EventTypes {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, len(EventTypes))
	for i, t := range EventTypes {
		names[i] = string(t)
	}
	return "", fmt.Errorf("invalid event type %q: must be one of %s", s, strings.Join(names, ", "))
}

// IdentityUpdate is a partial update. Nil fields are left untouched;
// Metadata replaces the stored object as a whole.
type IdentityUpdate struct {
	Name               *string        `json:"name,omitempty"`
	RelationshipStatus *string        `json:"relationship_status,omitempty"`
	LinkedInURL        *string        `json:"linkedin_url,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// Empty reports whether no field was supplied.
func (u IdentityUpdate) Empty() bool {
	return u.Name == nil && u.RelationshipStatus == nil && u.LinkedInURL == nil && u.Metadata == nil
}

// NewEvent is the payload for an inserted event.
type NewEvent struct {
	Type              string `json:"type"`
	Content           string `json:"content"`
	SessionID         string `json:"session_id,omitempty"`
	RelatedIdentityID string `json:"related_identity_id,omitempty"`
}

// ErrorPayload is the structured error value returned by tools instead of
// failing the call.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Profile is the normalized result of a profile lookup.
type Profile struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	Title       string `json:"title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Headline    string `json:"headline,omitempty"`
	Location    string `json:"location,omitempty"`
	LinkedInURL string `json:"linkedin_url"`
	Summary     string `json:"summary"`
}
