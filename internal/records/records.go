// Package records implements the session, identity and event operations on
// top of a store.Client.
package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/surelook/holmes-mcp/internal/models"
	"github.com/surelook/holmes-mcp/internal/store"
)

// Default result limits.
const (
	DefaultSessionLimit  = 10
	DefaultIdentityLimit = 10
	DefaultEventLimit    = 50
	DefaultNotesLimit    = 10
)

// NotesEventType is the tag get_notes filters on. Events are created with
// CONVERSATION_NOTE, so notes written through create_event never match.
// Kept as deployed until the hosted data is reconciled.
const NotesEventType = "NOTES"

var (
	// ErrNoUpdates rejects an identity update with no fields.
	ErrNoUpdates = errors.New("no updates provided")
	// ErrMissingID rejects an operation without its required identifier.
	ErrMissingID = errors.New("identifier is required")
)

// ValidationError reports a payload rejected before reaching the store.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Service runs the record operations.
type Service struct {
	Store store.Source
}

// New returns a Service backed by src.
func New(src store.Source) *Service {
	return &Service{Store: src}
}

// ListSessions returns the most recent sessions first.
func (s *Service) ListSessions(ctx context.Context, limit int) ([]store.Row, error) {
	return s.selectRows(ctx, store.TableSessions, store.Query{
		Order: &store.Order{Column: "created_at", Desc: true},
		Limit: orDefault(limit, DefaultSessionLimit),
	})
}

// GetSession returns the session with the given id.
func (s *Service) GetSession(ctx context.Context, id string) (store.Row, error) {
	return s.selectOne(ctx, store.TableSessions, id)
}

// ListIdentities returns identities in the store's default order.
func (s *Service) ListIdentities(ctx context.Context, limit int) ([]store.Row, error) {
	return s.selectRows(ctx, store.TableIdentities, store.Query{
		Limit: orDefault(limit, DefaultIdentityLimit),
	})
}

// GetIdentity returns the identity with the given id.
func (s *Service) GetIdentity(ctx context.Context, id string) (store.Row, error) {
	return s.selectOne(ctx, store.TableIdentities, id)
}

// GetEvents returns a session's events in chronological order.
func (s *Service) GetEvents(ctx context.Context, sessionID string, limit int) ([]store.Row, error) {
	return s.selectRows(ctx, store.TableEvents, store.Query{
		Filters: []store.Filter{store.Eq("session_id", sessionID)},
		Order:   &store.Order{Column: "created_at"},
		Limit:   orDefault(limit, DefaultEventLimit),
	})
}

// GetNotes returns note events attached to an identity, newest first.
func (s *Service) GetNotes(ctx context.Context, identityID string, limit int) ([]store.Row, error) {
	return s.selectRows(ctx, store.TableEvents, store.Query{
		Filters: []store.Filter{
			store.Eq("related_identity_id", identityID),
			store.Eq("type", NotesEventType),
		},
		Order: &store.Order{Column: "created_at", Desc: true},
		Limit: orDefault(limit, DefaultNotesLimit),
	})
}

// UpdateIdentity writes only the supplied fields. It returns the first
// updated row, or an empty row when nothing matched.
func (s *Service) UpdateIdentity(ctx context.Context, id string, u models.IdentityUpdate) (store.Row, error) {
	c, err := s.Store.Client(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, &ValidationError{Err: ErrMissingID}
	}
	if u.Empty() {
		return nil, &ValidationError{Err: ErrNoUpdates}
	}

	values := store.Row{}
	if u.Name != nil {
		values["name"] = *u.Name
	}
	if u.RelationshipStatus != nil {
		values["relationship_status"] = *u.RelationshipStatus
	}
	if u.LinkedInURL != nil {
		values["linkedin_url"] = *u.LinkedInURL
	}
	if u.Metadata != nil {
		values["metadata"] = u.Metadata
	}

	rows, err := c.Update(ctx, store.TableIdentities, values, []store.Filter{store.Eq("id", id)})
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

// CreateEvent inserts an event. It returns the inserted row, or an empty row
// when the store returned nothing.
func (s *Service) CreateEvent(ctx context.Context, e models.NewEvent) (store.Row, error) {
	c, err := s.Store.Client(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := models.ParseEventType(e.Type); err != nil {
		return nil, &ValidationError{Err: err}
	}
	if e.Content == "" {
		return nil, &ValidationError{Err: fmt.Errorf("content is required")}
	}

	values := store.Row{
		"type":    e.Type,
		"content": e.Content,
	}
	if e.SessionID != "" {
		values["session_id"] = e.SessionID
	}
	if e.RelatedIdentityID != "" {
		values["related_identity_id"] = e.RelatedIdentityID
	}

	rows, err := c.Insert(ctx, store.TableEvents, values)
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

func (s *Service) selectRows(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	c, err := s.Store.Client(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := c.Select(ctx, table, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []store.Row{}
	}
	return rows, nil
}

func (s *Service) selectOne(ctx context.Context, table, id string) (store.Row, error) {
	rows, err := s.selectRows(ctx, table, store.Query{
		Filters: []store.Filter{store.Eq("id", id)},
		Single:  true,
	})
	if err != nil {
		return nil, err
	}
	return first(rows), nil
}

func first(rows []store.Row) store.Row {
	if len(rows) == 0 {
		return store.Row{}
	}
	return rows[0]
}

func orDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
