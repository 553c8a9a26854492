// Package session provides the anonymous identity that correlates
// this client with its server-side cart. The token is a UUID v4,
// created once, persisted in the client state store, and sent as the
// X-Session header on every cart request.
package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"rgamer-store/internal/storage"
)

// Unavailable is returned when no client state store exists at all
// (e.g. a non-interactive context with no state directory). It is
// distinguishable from any real token so callers can detect
// "no real identity yet".
const Unavailable = "no-session"

// storageKey is the state-store key holding the session token.
const storageKey = "rgamer_session"

// Provider hands out the stable session token for this client.
// Repeated calls return the same value until the state store is
// cleared externally.
type Provider struct {
	store  *storage.Store
	logger *slog.Logger

	mu  sync.Mutex
	key string // cached after first resolution
}

// NewProvider creates a session provider backed by store.
// store may be nil, in which case Key always returns Unavailable.
func NewProvider(store *storage.Store, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{store: store, logger: logger}
}

// Key returns the session token, generating and persisting a new one
// on first need. Generation cannot fail; a storage-write failure falls
// back to an in-memory token for the process lifetime, so the cart
// keeps working and persistence resumes once storage recovers.
func (p *Provider) Key() string {
	if p.store == nil {
		return Unavailable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.key != "" {
		return p.key
	}

	if existing, ok, err := p.store.Get(storageKey); err == nil && ok && existing != "" {
		p.key = existing
		return p.key
	}

	p.key = uuid.NewString()
	if err := p.store.Set(storageKey, p.key); err != nil {
		p.logger.Warn("session token not persisted, using in-memory token",
			slog.String("error", err.Error()))
	}
	return p.key
}
