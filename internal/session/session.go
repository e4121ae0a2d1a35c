// Package session owns the full lifecycle of a dashboard session:
// established on login, resolved on every protected request, cleared on
// logout or upstream invalidation. Nothing else reads session state
// directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session-level error values.
var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidCookie  = errors.New("invalid session cookie")
	ErrInvalidConfig  = errors.New("invalid session config")
	ErrExpiredSession = errors.New("session expired")
)

// Record is the server-side session state: the upstream bearer token
// and the identity it was issued for. The browser only ever holds the
// opaque signed cookie pointing at it.
type Record struct {
	SessionID  string
	Token      string
	UserID     string
	UserEmail  string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Preferences is the per-user UI preference blob. Concurrent tabs race
// on it; last writer wins.
type Preferences struct {
	ShowBalance bool   `json:"showBalance"`
	Theme       string `json:"theme"`
}

// DefaultPreferences returns the preference state of a fresh account.
func DefaultPreferences() Preferences {
	return Preferences{ShowBalance: true, Theme: "system"}
}

// Store is the persistence contract for sessions and preferences.
type Store interface {
	SaveSession(ctx context.Context, record Record) error
	GetSession(ctx context.Context, sessionID string) (Record, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteSessionsForUser(ctx context.Context, userID string) error
	SavePreferences(ctx context.Context, userID string, preferences Preferences) error
	GetPreferences(ctx context.Context, userID string) (Preferences, error)
}

// Config aggregates the session manager settings.
type Config struct {
	SigningKey []byte
	Issuer     string
	CookieName string
	// SecureCookie marks issued cookies HTTPS-only; leave false only
	// for local development.
	SecureCookie bool
	TTL          time.Duration
	Clock        func() time.Time
}

// Manager mints, resolves, and clears sessions.
type Manager struct {
	store        Store
	signingKey   []byte
	issuer       string
	cookieName   string
	secureCookie bool
	ttl          time.Duration
	clock        func() time.Time
}

// NewManager wires a Manager over a Store.
func NewManager(store Store, config Config) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidConfig)
	}
	if len(config.SigningKey) == 0 {
		return nil, fmt.Errorf("%w: signing key is required", ErrInvalidConfig)
	}
	if config.Issuer == "" {
		return nil, fmt.Errorf("%w: issuer is required", ErrInvalidConfig)
	}
	if config.CookieName == "" {
		return nil, fmt.Errorf("%w: cookie name is required", ErrInvalidConfig)
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Manager{
		store:        store,
		signingKey:   config.SigningKey,
		issuer:       config.Issuer,
		cookieName:   config.CookieName,
		secureCookie: config.SecureCookie,
		ttl:          config.TTL,
		clock:        config.Clock,
	}, nil
}

// CookieName returns the configured session cookie name.
func (manager *Manager) CookieName() string {
	return manager.cookieName
}

// CookieSecure reports whether session cookies are HTTPS-only.
func (manager *Manager) CookieSecure() bool {
	return manager.secureCookie
}

// TTL returns the configured session lifetime.
func (manager *Manager) TTL() time.Duration {
	return manager.ttl
}

// Establish persists a new session for an upstream identity and returns
// the record plus the signed cookie value for the browser.
func (manager *Manager) Establish(ctx context.Context, token string, userID string, userEmail string) (Record, string, error) {
	now := manager.clock().UTC()
	record := Record{
		SessionID:  uuid.NewString(),
		Token:      token,
		UserID:     userID,
		UserEmail:  userEmail,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := manager.store.SaveSession(ctx, record); err != nil {
		return Record{}, "", err
	}
	claims := jwt.RegisteredClaims{
		Issuer:    manager.issuer,
		Subject:   record.SessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(manager.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(manager.signingKey)
	if err != nil {
		return Record{}, "", fmt.Errorf("sign session cookie: %w", err)
	}
	return record, signed, nil
}

// Resolve verifies a cookie value and loads the session it points at.
func (manager *Manager) Resolve(ctx context.Context, cookieValue string) (Record, error) {
	if cookieValue == "" {
		return Record{}, fmt.Errorf("%w: empty cookie", ErrInvalidCookie)
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(cookieValue, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return manager.signingKey, nil
	},
		jwt.WithIssuer(manager.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(manager.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Record{}, fmt.Errorf("%w: %v", ErrExpiredSession, err)
		}
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Record{}, fmt.Errorf("%w: missing subject", ErrInvalidCookie)
	}
	record, err := manager.store.GetSession(ctx, claims.Subject)
	if err != nil {
		return Record{}, err
	}
	return record, nil
}

// Touch records session activity; failures are ignored by callers.
func (manager *Manager) Touch(ctx context.Context, record Record) error {
	record.LastSeenAt = manager.clock().UTC()
	return manager.store.SaveSession(ctx, record)
}

// Clear drops one session.
func (manager *Manager) Clear(ctx context.Context, sessionID string) error {
	return manager.store.DeleteSession(ctx, sessionID)
}

// ClearUser drops every session a user holds, across tabs and devices.
func (manager *Manager) ClearUser(ctx context.Context, userID string) error {
	return manager.store.DeleteSessionsForUser(ctx, userID)
}

// Preferences loads a user's UI preferences, defaulting when unset.
func (manager *Manager) Preferences(ctx context.Context, userID string) (Preferences, error) {
	preferences, err := manager.store.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DefaultPreferences(), nil
		}
		return Preferences{}, err
	}
	return preferences, nil
}

// SavePreferences stores a user's UI preferences, last writer wins.
func (manager *Manager) SavePreferences(ctx context.Context, userID string, preferences Preferences) error {
	return manager.store.SavePreferences(ctx, userID, preferences)
}
