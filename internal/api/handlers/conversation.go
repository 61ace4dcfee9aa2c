package handlers

import (
	"encoding/json"
	"net/http"

	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services"
	"lurelab/pkg/logger"
)

// ConversationHandler handles conversation turn endpoints
type ConversationHandler struct {
	coordinator *services.SessionCoordinator
	logger      *logger.Logger
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(coordinator *services.SessionCoordinator, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		coordinator: coordinator,
		logger:      log.WithComponent("conversation"),
	}
}

// Turn handles POST /api/v1/conversation/turn
func (h *ConversationHandler) Turn(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if req.Message.Text == "" {
		respondError(w, http.StatusBadRequest, "message.text is required")
		return
	}
	if req.Message.Sender == "" {
		req.Message.Sender = models.SenderScammer
	}
	if !req.Message.Sender.Valid() {
		respondError(w, http.StatusBadRequest, "message.sender is invalid")
		return
	}
	for _, m := range req.ConversationHistory {
		if !m.Sender.Valid() {
			respondError(w, http.StatusBadRequest, "conversationHistory contains an invalid sender")
			return
		}
	}

	resp := h.coordinator.ProcessTurn(r.Context(), req)
	respondJSON(w, http.StatusOK, resp)
}

// AnalyzeTextRequest is the body for standalone text analysis
type AnalyzeTextRequest struct {
	Text string `json:"text"`
}

// AnalyzeText handles POST /api/v1/analyze/text
func (h *ConversationHandler) AnalyzeText(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "text is required")
		return
	}

	respondJSON(w, http.StatusOK, h.coordinator.QuickCheck(req.Text))
}
