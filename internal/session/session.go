// Package session persists the signed-in user's bearer token.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/Veraticus/amo-inventory/internal/common"
	"github.com/Veraticus/amo-inventory/internal/storage"
)

// ErrNoSession is returned by Load when nobody is signed in.
var ErrNoSession = fmt.Errorf("not logged in: %w", common.ErrUnauthorized)

// Session is the persisted login.
type Session struct {
	SavedAt  time.Time `json:"saved_at"`
	Token    string    `json:"access_token"`
	Username string    `json:"username"`
}

// Manager loads and stores the session in a storage.Store.
type Manager struct {
	store storage.Store
	clock clockwork.Clock
}

// NewManager creates a Manager. A nil clock uses the real clock.
func NewManager(store storage.Store, clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{store: store, clock: clock}
}

// Save stores token and username, replacing any previous session.
func (m *Manager) Save(ctx context.Context, token, username string) error {
	if strings.TrimSpace(token) == "" {
		return common.NewValidationError("access_token", "token is required")
	}
	s := Session{Token: token, Username: username, SavedAt: m.clock.Now().UTC()}
	if err := storage.SetJSON(ctx, m.store, storage.KeySession, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the stored session or ErrNoSession.
func (m *Manager) Load(ctx context.Context) (*Session, error) {
	var s Session
	if err := storage.GetJSON(ctx, m.store, storage.KeySession, &s); err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s.Token == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Clear signs out. Clearing an empty session is not an error.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, storage.KeySession); err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// TokenInfo is what the client can tell about a token without the signing key.
type TokenInfo struct {
	ExpiresAt time.Time
	Subject   string
	HasExpiry bool
	Expired   bool
}

// Inspect decodes token claims without verifying the signature; only the
// backend can do that. Tokens that are not JWTs return an error.
func (m *Manager) Inspect(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to decode token: %w", err)
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp != nil {
		info.HasExpiry = true
		info.ExpiresAt = exp.Time
		info.Expired = !m.clock.Now().Before(exp.Time)
	}
	return info, nil
}

// Warning returns a message for the user when writes to the backend will
// fail, or "" when the session looks usable.
func (m *Manager) Warning(ctx context.Context) string {
	s, err := m.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "Missing JWT token. Saving to backend is disabled; run `amo login`."
		}
		return "Session unavailable: " + err.Error()
	}
	info, err := m.Inspect(s.Token)
	if err != nil {
		return ""
	}
	if info.Expired {
		return fmt.Sprintf("Session expired at %s; run `amo login`.", info.ExpiresAt.Local().Format(time.RFC1123))
	}
	return ""
}
