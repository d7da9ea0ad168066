package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// openTimeout bounds a single open attempt.
const openTimeout = 30 * time.Second

// Opener constructs a Client. It runs at most once per Lazy, not counting
// attempts that were cancelled or timed out.
type Opener func(ctx context.Context) (Client, error)

// Lazy holds the process-wide store client. The first call to Client opens
// it; the outcome, success or failure, is kept for the life of the process.
type Lazy struct {
	mu     sync.Mutex
	open   Opener
	opened bool
	client Client
}

// NewLazy returns a Lazy that opens its client with open. A nil opener means
// the store is not configured and every call reports ErrUnavailable.
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

// Fixed wraps an already constructed client. A nil client behaves like an
// unconfigured store.
func Fixed(c Client) *Lazy {
	return &Lazy{opened: true, client: c}
}

// Client returns the store client, opening it on first use. The open does
// not inherit the caller's cancellation, and an attempt that ends in a
// context error is not cached, so the next call tries again.
func (l *Lazy) Client(ctx context.Context) (Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.opened {
		if l.open == nil {
			l.opened = true
		} else {
			openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), openTimeout)
			c, err := l.open(openCtx)
			cancel()
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				log.WithError(err).Warn("store client initialization interrupted; will retry")
				return nil, ErrUnavailable
			case err != nil:
				l.opened = true
				log.WithError(err).Warn("store client initialization failed; store tools disabled")
			default:
				l.opened = true
				l.client = c
			}
		}
	}
	if l.client == nil {
		return nil, ErrUnavailable
	}
	return l.client, nil
}

// Close releases the underlying client if it holds resources.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.client.(io.Closer); ok {
		l.client = nil
		return c.Close()
	}
	return nil
}
