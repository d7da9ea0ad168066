package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Options.Backend.
const (
	BackendPostgREST = "postgrest"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	URL         string
	Key         string
	DatabaseURL string
	SQLitePath  string
}

// Configured reports whether the credentials for the backend are present.
func (o Options) Configured() bool {
	switch o.Backend {
	case BackendPostgREST, "":
		return o.URL != "" && o.Key != ""
	case BackendPostgres:
		return o.DatabaseURL != ""
	case BackendSQLite:
		return o.SQLitePath != ""
	}
	return false
}

// NewOpener returns an Opener for the configured backend, or nil when the
// credentials are missing so that the store reports ErrUnavailable without
// touching the network.
func NewOpener(o Options) Opener {
	if !o.Configured() {
		return nil
	}
	switch o.Backend {
	case BackendPostgres:
		return func(ctx context.Context) (Client, error) {
			return OpenPostgres(ctx, o.DatabaseURL)
		}
	case BackendSQLite:
		return func(context.Context) (Client, error) {
			return OpenSQLite(o.SQLitePath)
		}
	default:
		return func(context.Context) (Client, error) {
			return NewPostgREST(o.URL, o.Key)
		}
	}
}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) error {
	switch name {
	case BackendPostgREST, BackendPostgres, BackendSQLite:
		return nil
	}
	return fmt.Errorf("unknown store backend %q (use %s, %s or %s)", name, BackendPostgREST, BackendPostgres, BackendSQLite)
}
