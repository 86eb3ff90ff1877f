package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/medic-pro/internal/auth"
	"github.com/wolfman30/medic-pro/internal/dashboard"
	"github.com/wolfman30/medic-pro/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/medic-pro/internal/http/middleware"
	"github.com/wolfman30/medic-pro/internal/notify"
	"github.com/wolfman30/medic-pro/internal/store"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

func newTestRouter(t *testing.T, opts ...handlers.AuthOption) (http.Handler, *auth.Sessions) {
	t.Helper()

	logger := logging.NewWithWriter("error", &bytes.Buffer{})
	sessions := auth.NewSessions("router-secret", time.Hour)
	manager := dashboard.NewManager(dashboard.Deps{Store: store.NewMemoryStore(), Logger: logger})

	cfg := &Config{
		Logger:             logger,
		Sessions:           sessions,
		AuthHandler:        handlers.NewAuthHandler(sessions, nil, logger, opts...),
		ClinicHandler:      handlers.NewClinicHandler(handlers.ClinicHandlerConfig{Manager: manager, Logger: logger}),
		ContactHandler:     handlers.NewContactHandler(notify.NewContactService(notify.NewStubEmailSender(logger), "inbox@medicpro.dz", logger), logger),
		MetricsHandler:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		CORSAllowedOrigins: []string{"https://app.medicpro.dz"},
		ChatLimiter:        httpmiddleware.NewRateLimiter(0.001, 1),
	}
	return New(cfg), sessions
}

func request(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := request(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, rr.Header().Get(httpmiddleware.RequestIDHeader))
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, request(t, router, http.MethodGet, "/api/specialties", "", nil).Code)
	assert.Equal(t, http.StatusOK, request(t, router, http.MethodGet, "/metrics", "", nil).Code)
	assert.Equal(t, http.StatusAccepted, request(t, router, http.MethodPost, "/contact", "", map[string]string{
		"name": "Sara", "email": "sara@example.dz", "message": "Bonjour",
	}).Code)
}

func TestRouterClinicRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := request(t, router, http.MethodGet, "/api/clinic", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = request(t, router, http.MethodGet, "/api/clinic", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterRejectsUnverifiedLoginByDefault(t *testing.T) {
	router, sessions := newTestRouter(t)

	owner, _, err := sessions.Issue(auth.Identity{Email: "victim@example.com"})
	require.NoError(t, err)
	rr := request(t, router, http.MethodPost, "/api/clinic/setup", owner, map[string]string{"clinicName": "Cabinet Oran"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = request(t, router, http.MethodPost, "/auth/login", "", map[string]string{"email": "victim@example.com"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.NotContains(t, body, "token")

	rr = request(t, router, http.MethodGet, "/api/clinic", owner, nil)
	assert.Equal(t, http.StatusOK, rr.Code, "the owner keeps access")
}

func TestRouterLoginSetupFlow(t *testing.T) {
	router, _ := newTestRouter(t, handlers.WithUnverifiedLogin())

	rr := request(t, router, http.MethodPost, "/auth/login", "", map[string]string{"email": "dr@example.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	var session handlers.SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&session))

	rr = request(t, router, http.MethodGet, "/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, router, http.MethodGet, "/api/clinic", session.Token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = request(t, router, http.MethodPost, "/api/clinic/setup", session.Token, map[string]string{"clinicName": "Cabinet Oran"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = request(t, router, http.MethodGet, "/api/clinic", session.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, router, http.MethodPost, "/api/clinic/patients", session.Token, map[string]any{"name": "Nadia", "age": 41})
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestRouterChatIsRateLimited(t *testing.T) {
	router, sessions := newTestRouter(t)
	token, _, err := sessions.Issue(auth.Identity{Email: "dr@example.com"})
	require.NoError(t, err)

	rr := request(t, router, http.MethodPost, "/api/clinic/setup", token, map[string]string{"clinicName": "Cabinet Oran"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = request(t, router, http.MethodPost, "/api/clinic/chat", token, map[string]string{"message": "Bonjour"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = request(t, router, http.MethodPost, "/api/clinic/chat", token, map[string]string{"message": "Encore"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/clinic", nil)
	req.Header.Set("Origin", "https://app.medicpro.dz")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.medicpro.dz", rr.Header().Get("Access-Control-Allow-Origin"))
}
