// Package session manages the short-lived credential used against the
// appliance API.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ridgegate-systems/fwbridge/internal/normalize"
)

// ErrAuthFailed is surfaced when authentication fails after its single
// transparent retry.
var ErrAuthFailed = errors.New("cannot authenticate against appliance")

// DefaultTokenLifetime applies when the appliance omits an expiry.
const DefaultTokenLifetime = 5 * time.Minute

// Token is the result of a credential exchange. SessionID is only
// meaningful for the v8 dialect.
type Token struct {
	Bearer    string
	SessionID string
	ExpiresIn time.Duration
}

// Authenticator exchanges configured appliance credentials for a
// bearer token. Implementations live in the appliance package; tests
// inject fakes.
type Authenticator interface {
	Authenticate(ctx context.Context) (*Token, error)
}

// Manager holds the current credential and its expiry. It moves
// through Unauthenticated -> Authenticated -> (Expired|Rejected) ->
// Authenticated; expiry is detected lazily on the next validity check,
// and a rejection is reported by the caller via Invalidate.
//
// Concurrent refreshes are tolerated: two callers discovering expiry
// may both re-authenticate, and the last write wins. Re-authentication
// is idempotent upstream, so no coordination beyond the mutex is
// needed.
type Manager struct {
	mu         sync.Mutex
	auth       Authenticator
	dialect    normalize.Dialect
	defaultTTL time.Duration
	now        func() time.Time

	token     string
	sessionID string
	expiresAt time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDefaultLifetime overrides the assumed token lifetime for
// appliances that omit expires_in.
func WithDefaultLifetime(d time.Duration) Option {
	return func(m *Manager) { m.defaultTTL = d }
}

// NewManager constructs a Manager. The dialect is fixed for the life
// of the manager.
func NewManager(auth Authenticator, dialect normalize.Dialect, opts ...Option) *Manager {
	m := &Manager{
		auth:       auth,
		dialect:    dialect,
		defaultTTL: DefaultTokenLifetime,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Valid reports whether a credential is held and unexpired.
func (m *Manager) Valid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validLocked()
}

func (m *Manager) validLocked() bool {
	return m.token != "" && m.now().Before(m.expiresAt)
}

// Ensure authenticates if no valid credential is held. It is a no-op
// when the current credential is still valid.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validLocked() {
		return nil
	}

	token, err := m.auth.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("credential exchange: %w", err)
	}
	ttl := token.ExpiresIn
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	m.token = token.Bearer
	m.sessionID = token.SessionID
	m.expiresAt = m.now().Add(ttl)
	return nil
}

// Invalidate discards the held credential. Called when the appliance
// rejects a credential believed valid; the next Ensure
// re-authenticates.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.sessionID = ""
	m.expiresAt = time.Time{}
}

// Attach adds the credential headers to an outgoing request. The v8
// dialect additionally carries the session identifier on every
// request; v7 never does.
func (m *Manager) Attach(req *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	if m.dialect == normalize.DialectV8 && m.sessionID != "" {
		req.Header.Set("X-Session-ID", m.sessionID)
	}
}
