package handlers

import (
	"net/http"
	"strings"

	"github.com/wolfman30/medic-pro/internal/ai"
)

const maxChatHistory = 40

type ChatRequest struct {
	Message string        `json:"message"`
	History []ai.ChatTurn `json:"history"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat answers one assistant question in the clinic's specialty. Model
// failures come back as the apology text with status 200.
func (h *ClinicHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.chat == nil {
		writeJSON(w, http.StatusOK, ChatResponse{Reply: ai.Apology})
		return
	}
	c, _, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
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

	history := req.History
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	reply := h.chat.Reply(r.Context(), req.Message, history, rec.Branding.Specialty)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}
