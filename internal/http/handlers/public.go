package handlers

import (
	"errors"
	"net/http"

	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/notify"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Specialties returns the setup wizard taxonomy.
func Specialties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":       clinic.Categories(),
		"defaultCategory":  clinic.DefaultCategory,
		"defaultSpecialty": clinic.DefaultSpecialty,
	})
}

// ContactHandler forwards the public contact form.
type ContactHandler struct {
	service *notify.ContactService
	logger  *logging.Logger
}

func NewContactHandler(service *notify.ContactService, logger *logging.Logger) *ContactHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactHandler{service: service, logger: logger}
}

func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		jsonError(w, "contact form not configured", http.StatusServiceUnavailable)
		return
	}
	var form notify.ContactForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := h.service.Submit(r.Context(), form); err != nil {
		if errors.Is(err, notify.ErrInvalidContact) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("contact form delivery failed", "error", err.Error())
		jsonError(w, "message could not be delivered", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
