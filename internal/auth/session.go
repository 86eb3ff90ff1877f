// Package auth issues and verifies the session tokens that scope every
// clinic record to an account.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSession   = errors.New("auth: invalid session")
	ErrSessionsDisabled = errors.New("auth: session secret not configured")
	ErrInvalidEmail     = errors.New("auth: a valid email is required")
)

const sessionIssuer = "medic-pro"

// Identity is the signed-in practitioner.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Sessions signs HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// NormalizeEmail lowercases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Issue returns a signed token for id and its expiry.
func (s *Sessions) Issue(id Identity) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrSessionsDisabled
	}
	email, err := NormalizeEmail(id.Email)
	if err != nil {
		return "", time.Time{}, err
	}
	now := s.now()
	expires := now.Add(s.ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Name: strings.TrimSpace(id.Name),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign session: %w", err)
	}
	return token, expires, nil
}

// Verify checks a token issued by Issue.
func (s *Sessions) Verify(token string) (Identity, error) {
	if len(s.secret) == 0 {
		return Identity{}, ErrSessionsDisabled
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidSession
	}
	return Identity{Email: claims.Subject, Name: claims.Name}, nil
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity placed by the session middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
