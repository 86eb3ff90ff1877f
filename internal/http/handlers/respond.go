// Package handlers implements the JSON endpoints of the MedicPro API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/dashboard"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

const maxBodyBytes = 2 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads one JSON value into dst. Logos are sent inline as data
// URLs, hence the generous body limit.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF):
			jsonError(w, "request body required", http.StatusBadRequest)
		default:
			jsonError(w, "invalid JSON body", http.StatusBadRequest)
		}
		return false
	}
	return true
}

// writeDashboardError maps controller errors onto HTTP statuses.
func writeDashboardError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case clinic.IsValidationError(err):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, dashboard.ErrClinicNameMissing), errors.Is(err, dashboard.ErrResetNotConfirmed):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, dashboard.ErrNotSetup):
		jsonError(w, "setup required", http.StatusNotFound)
	case errors.Is(err, dashboard.ErrAlreadySetup):
		jsonError(w, "clinic already set up", http.StatusConflict)
	default:
		logger.Error("dashboard operation failed", "error", err.Error())
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
