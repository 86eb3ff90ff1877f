package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/medic-pro/internal/ai"
	"github.com/wolfman30/medic-pro/internal/audit"
	"github.com/wolfman30/medic-pro/internal/auth"
	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/dashboard"
	"github.com/wolfman30/medic-pro/internal/export"
	"github.com/wolfman30/medic-pro/internal/store"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// Replier answers assistant questions. *ai.ChatClient implements it.
type Replier interface {
	Reply(ctx context.Context, message string, history []ai.ChatTurn, specialty string) string
}

// ClinicHandler serves the signed-in practitioner's clinic record.
type ClinicHandler struct {
	manager  *dashboard.Manager
	scope    string
	chat     Replier
	exporter *export.Exporter
	audit    audit.Querier
	logger   *logging.Logger
}

type ClinicHandlerConfig struct {
	Manager  *dashboard.Manager
	KeyScope string
	Chat     Replier
	Exporter *export.Exporter
	Audit    audit.Querier
	Logger   *logging.Logger
}

func NewClinicHandler(cfg ClinicHandlerConfig) *ClinicHandler {
	if cfg.Manager == nil {
		panic("handlers: dashboard manager cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.KeyScope == "" {
		cfg.KeyScope = store.ScopeUser
	}
	return &ClinicHandler{
		manager:  cfg.Manager,
		scope:    cfg.KeyScope,
		chat:     cfg.Chat,
		exporter: cfg.Exporter,
		audit:    cfg.Audit,
		logger:   cfg.Logger,
	}
}

// Routes mounts under /api/clinic behind the session middleware. chatMW
// wraps only the assistant endpoint.
func (h *ClinicHandler) Routes(chatMW ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	r.Delete("/", h.Reset)
	r.Post("/setup", h.Setup)
	r.Patch("/branding", h.UpdateBranding)
	r.Put("/goal", h.UpdateGoal)
	r.Get("/revenue", h.Revenue)
	r.Post("/export", h.Export)
	r.Get("/audit", h.AuditLog)
	r.With(chatMW...).Post("/chat", h.Chat)

	mountList(r, "/patients", h, listRoutes[clinic.Patient]{
		search: (*dashboard.Controller).Patients,
		add:    (*dashboard.Controller).AddPatient,
		update: (*dashboard.Controller).UpdatePatient,
		remove: (*dashboard.Controller).DeletePatient,
		withID: func(p clinic.Patient, id string) clinic.Patient { p.ID = id; return p },
	})
	mountList(r, "/appointments", h, listRoutes[clinic.Appointment]{
		add:    (*dashboard.Controller).AddAppointment,
		update: (*dashboard.Controller).UpdateAppointment,
		remove: (*dashboard.Controller).DeleteAppointment,
		withID: func(a clinic.Appointment, id string) clinic.Appointment { a.ID = id; return a },
	})
	mountList(r, "/payments", h, listRoutes[clinic.Payment]{
		add:    (*dashboard.Controller).AddPayment,
		update: (*dashboard.Controller).UpdatePayment,
		remove: (*dashboard.Controller).DeletePayment,
		withID: func(p clinic.Payment, id string) clinic.Payment { p.ID = id; return p },
	})
	return r
}

// controller resolves the record key of the signed-in user. ok is false when
// a response has already been written.
func (h *ClinicHandler) controller(w http.ResponseWriter, r *http.Request) (*dashboard.Controller, auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return nil, auth.Identity{}, false
	}
	c, err := h.manager.For(r.Context(), store.RecordKey(h.scope, id.Email))
	if err != nil {
		h.logger.Error("load clinic record failed", "error", err.Error())
		jsonError(w, "internal error", http.StatusInternalServerError)
		return nil, id, false
	}
	return c, id, true
}

// Get returns the stored record, or 404 until setup has run.
func (h *ClinicHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	rec, found, err := c.Record(r.Context())
	if err != nil {
		writeDashboardError(w, h.logger, err)
		return
	}
	if !found {
		jsonError(w, "setup required", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type SetupResponse struct {
	Record   *clinic.Record `json:"record"`
	Greeting string         `json:"greeting"`
}

// Setup runs the onboarding bootstrap.
func (h *ClinicHandler) Setup(w http.ResponseWriter, r *http.Request) {
	c, id, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req dashboard.SetupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Actor = id.Email
	rec, err := c.Bootstrap(r.Context(), req)
	if err != nil {
		writeDashboardError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, SetupResponse{Record: rec, Greeting: ai.Greeting(rec.Branding.Specialty)})
}

func (h *ClinicHandler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req dashboard.BrandingUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	h.respond(w, http.StatusOK)(c.UpdateBranding(r.Context(), req))
}

type goalRequest struct {
	MonthlyGoal *float64 `json:"monthlyGoal"`
}

// UpdateGoal treats a null goal as zero.
func (h *ClinicHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var goal float64
	if req.MonthlyGoal != nil {
		goal = *req.MonthlyGoal
	}
	h.respond(w, http.StatusOK)(c.UpdateGoal(r.Context(), goal))
}

func (h *ClinicHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	summary, err := c.Revenue(r.Context())
	if err != nil {
		writeDashboardError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Reset deletes the record. The query must carry confirm=true.
func (h *ClinicHandler) Reset(w http.ResponseWriter, r *http.Request) {
	c, id, ok := h.controller(w, r)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := c.Reset(r.Context(), confirmed, id.Email); err != nil {
		writeDashboardError(w, h.logger, err)
		return
	}
	h.manager.Forget(c.Key())
	w.WriteHeader(http.StatusNoContent)
}

// Export uploads a snapshot of the record.
func (h *ClinicHandler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.exporter.Enabled() {
		jsonError(w, "export not configured", http.StatusServiceUnavailable)
		return
	}
	c, id, ok := h.controller(w, r)
	if !ok {
		return
	}
	rec, found, err := c.Record(r.Context())
	if err != nil {
		writeDashboardError(w, h.logger, err)
		return
	}
	if !found {
		jsonError(w, "setup required", http.StatusNotFound)
		return
	}
	snap, err := h.exporter.Export(r.Context(), c.Key(), id.Email, rec)
	if err != nil {
		h.logger.Error("export failed", "error", err.Error())
		jsonError(w, "export failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// AuditLog lists recent audited operations on the caller's record.
func (h *ClinicHandler) AuditLog(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		jsonError(w, "audit log not configured", http.StatusServiceUnavailable)
		return
	}
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxAuditLimit)
	}
	events, err := h.audit.Query(r.Context(), audit.Filter{
		RecordKey: c.Key(),
		Action:    audit.Action(r.URL.Query().Get("action")),
		Limit:     limit,
	})
	if err != nil {
		h.logger.Error("audit query failed", "error", err.Error())
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *ClinicHandler) respond(w http.ResponseWriter, status int) func(*clinic.Record, error) {
	return func(rec *clinic.Record, err error) {
		if err != nil {
			writeDashboardError(w, h.logger, err)
			return
		}
		writeJSON(w, status, rec)
	}
}

type listRoutes[T clinic.Entity] struct {
	// search backs GET path?q=; nil leaves the route out.
	search func(*dashboard.Controller, context.Context, string) ([]T, error)
	add    func(*dashboard.Controller, context.Context, T) (*clinic.Record, error)
	update func(*dashboard.Controller, context.Context, T) (*clinic.Record, error)
	remove func(*dashboard.Controller, context.Context, string) (*clinic.Record, error)
	withID func(T, string) T
}

// mountList registers POST path, PUT path/{id} and DELETE path/{id}, which
// answer with the whole updated record, plus GET path?q= when search is set.
func mountList[T clinic.Entity](r chi.Router, path string, h *ClinicHandler, ops listRoutes[T]) {
	r.Route(path, func(r chi.Router) {
		if ops.search != nil {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				c, _, ok := h.controller(w, req)
				if !ok {
					return
				}
				items, err := ops.search(c, req.Context(), req.URL.Query().Get("q"))
				if err != nil {
					writeDashboardError(w, h.logger, err)
					return
				}
				writeJSON(w, http.StatusOK, items)
			})
		}
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			c, _, ok := h.controller(w, req)
			if !ok {
				return
			}
			var item T
			if !decodeJSON(w, req, &item) {
				return
			}
			h.respond(w, http.StatusCreated)(ops.add(c, req.Context(), item))
		})
		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			c, _, ok := h.controller(w, req)
			if !ok {
				return
			}
			var item T
			if !decodeJSON(w, req, &item) {
				return
			}
			item = ops.withID(item, chi.URLParam(req, "id"))
			h.respond(w, http.StatusOK)(ops.update(c, req.Context(), item))
		})
		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			c, _, ok := h.controller(w, req)
			if !ok {
				return
			}
			h.respond(w, http.StatusOK)(ops.remove(c, req.Context(), chi.URLParam(req, "id")))
		})
	})
}
