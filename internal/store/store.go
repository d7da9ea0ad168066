// Package store is the persistence boundary for sessions, identities and
// events. The schema belongs to the hosted database; this package only
// selects, inserts and updates rows through a generic Client.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Table names in the hosted database.
const (
	TableSessions   = "sessions"
	TableIdentities = "identities"
	TableEvents     = "events"
)

// ErrUnavailable is returned when the store client could not be initialized.
var ErrUnavailable = errors.New("store client not initialized")

// Row is a single record as returned by the store.
type Row map[string]any

// Filter is an equality predicate on a column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts results by a column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a select. A zero Limit means the store default.
// Single requests exactly one row: zero or multiple matches are an error
// reported by the store.
type Query struct {
	Filters []Filter
	Order   *Order
	Limit   int
	Single  bool
}

// Client is the capability set the tools need from the store.
type Client interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, values Row) ([]Row, error)
	Update(ctx context.Context, table string, values Row, filters []Filter) ([]Row, error)
}

// Source hands out the process-wide Client.
type Source interface {
	Client(ctx context.Context) (Client, error)
}

// Error is a failure reported by the store itself. Every backend reports
// errors in the PostgREST shape so callers see one format.
type Error struct {
	// Status is the HTTP status for REST backends, zero otherwise.
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Code)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// CodeSingleRow matches PostgREST's code for a single-object request that
// did not match exactly one row.
const CodeSingleRow = "PGRST116"

func singleRowError(n int) *Error {
	return &Error{
		Status:  406,
		Code:    CodeSingleRow,
		Message: "JSON object requested, multiple (or no) rows returned",
		Details: fmt.Sprintf("The result contains %d rows", n),
	}
}
