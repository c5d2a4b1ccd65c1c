package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession covers every session token defect: absent, malformed,
// forged, or expired. Callers must not be able to tell these apart.
var ErrInvalidSession = errors.New("invalid session token")

// Manager issues and verifies stateless signed session tokens. There is no
// server-side session state; a token stays valid until its expiry.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	NowFunc func() time.Time
}

// NewManager constructs a Manager signing tokens with the provided secret
// and lifetime.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	if len(secret) == 0 {
		panic("auth: signing secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: secret, ttl: ttl}
}

// Issue creates a signed token embedding the user identifier and an absolute
// expiry. The caller decides the transport (typically a cookie).
func (m *Manager) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// Verify parses and validates a token, returning the embedded user id.
// Every defect is reported as ErrInvalidSession.
func (m *Manager) Verify(raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidSession
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidSession
	}

	return claims.Subject, nil
}

func (m *Manager) now() time.Time {
	if m.NowFunc != nil {
		return m.NowFunc().UTC()
	}
	return time.Now().UTC()
}
