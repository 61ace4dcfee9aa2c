package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services"
	"lurelab/internal/infrastructure/cache"
	"lurelab/pkg/logger"
)

// summaryCacheTTL is deliberately short: summaries change every turn.
const summaryCacheTTL = 30 * time.Second

// SessionsHandler handles session monitoring endpoints
type SessionsHandler struct {
	coordinator *services.SessionCoordinator
	cache       *cache.RedisCache
	logger      *logger.Logger
}

// NewSessionsHandler creates a new SessionsHandler
func NewSessionsHandler(coordinator *services.SessionCoordinator, c *cache.RedisCache, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		coordinator: coordinator,
		cache:       c,
		logger:      log.WithComponent("sessions"),
	}
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if h.cache != nil {
		var cached models.SessionSummary
		err := h.cache.GetCachedSessionSummary(r.Context(), sessionID, &cached)
		if err == nil {
			respondJSON(w, http.StatusOK, cached)
			return
		}
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("summary cache read failed")
		}
	}

	summary, err := h.coordinator.GetSessionSummary(r.Context(), sessionID)
	if errors.Is(err, services.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("summary lookup failed")
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	if h.cache != nil {
		if err := h.cache.CacheSessionSummary(r.Context(), sessionID, summary, summaryCacheTTL); err != nil {
			h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("summary cache write failed")
		}
	}

	respondJSON(w, http.StatusOK, summary)
}

// ForceCallback handles POST /api/v1/sessions/{id}/callback
func (h *SessionsHandler) ForceCallback(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	err := h.coordinator.ForceCallback(r.Context(), sessionID)
	if errors.Is(err, services.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("forced callback failed")
		respondError(w, http.StatusBadGateway, "callback delivery failed")
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateSessionSummary(r.Context(), sessionID); err != nil {
			h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("summary cache invalidation failed")
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "callback sent", "sessionId": sessionID})
}
