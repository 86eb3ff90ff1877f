package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/medic-pro/internal/auth"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

// IDTokenVerifier checks a third-party sign-in token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (auth.Identity, error)
}

type AuthHandler struct {
	sessions   *auth.Sessions
	google     IDTokenVerifier
	unverified bool
	logger     *logging.Logger
}

// AuthOption configures an AuthHandler.
type AuthOption func(*AuthHandler)

// WithUnverifiedLogin enables POST /auth/login, which trusts the submitted
// email without any proof. Local development only.
func WithUnverifiedLogin() AuthOption {
	return func(h *AuthHandler) { h.unverified = true }
}

// NewAuthHandler wires the sign-in endpoints. google may be nil, which turns
// the Google endpoint off. Email-only login stays closed unless
// WithUnverifiedLogin is passed.
func NewAuthHandler(sessions *auth.Sessions, google IDTokenVerifier, logger *logging.Logger, opts ...AuthOption) *AuthHandler {
	if sessions == nil {
		panic("handlers: sessions cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &AuthHandler{sessions: sessions, google: google, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type loginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type SessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      auth.Identity `json:"user"`
}

// Login starts a session for the submitted email. Records are keyed by that
// email, so without WithUnverifiedLogin it answers 403.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.unverified {
		jsonError(w, "email login disabled, use a verified sign-in", http.StatusForbidden)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.issue(w, auth.Identity{Email: req.Email, Name: req.Name})
}

// Google starts a session from a verified Google ID token.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		jsonError(w, "google sign-in not configured", http.StatusNotImplemented)
		return
	}
	var req googleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		jsonError(w, "idToken is required", http.StatusBadRequest)
		return
	}
	id, err := h.google.Verify(r.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("google sign-in rejected", "error", err.Error())
		jsonError(w, "invalid google credential", http.StatusUnauthorized)
		return
	}
	h.issue(w, id)
}

// Logout is stateless; the client discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the identity behind the current session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (h *AuthHandler) issue(w http.ResponseWriter, id auth.Identity) {
	token, expires, err := h.sessions.Issue(id)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		jsonError(w, "a valid email is required", http.StatusBadRequest)
		return
	case errors.Is(err, auth.ErrSessionsDisabled):
		jsonError(w, "sign-in disabled", http.StatusServiceUnavailable)
		return
	case err != nil:
		h.logger.Error("issue session failed", "error", err.Error())
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	email, _ := auth.NormalizeEmail(id.Email)
	writeJSON(w, http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      auth.Identity{Email: email, Name: strings.TrimSpace(id.Name)},
	})
}
