package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurelab/internal/api/handlers"
	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services"
	"lurelab/internal/domain/services/ai"
	"lurelab/internal/infrastructure/repository"
	"lurelab/pkg/logger"
)

const testAPIKey = "test-key"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	log := logger.NewDefault()
	catalog := ai.NewCatalog()
	coordinator := services.NewSessionCoordinator(
		repository.NewMemorySessionStore(),
		ai.NewClassifier(catalog, 0.6, log),
		ai.NewExtractor(catalog, "91", log),
		nil,
		services.CoordinatorConfig{MaxTurns: 15, MinTurnsBeforeCallback: 3},
		log,
	)

	h := handlers.NewHandlers(handlers.Dependencies{
		Coordinator: coordinator,
		Logger:      log,
	})

	cfg := config.Config{}
	cfg.Auth.APIKey = testAPIKey
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.CORS.AllowedHeaders = []string{"Accept", "Content-Type", "x-api-key"}

	return NewRouter(cfg, h, nil, log).Setup()
}

func doRequest(t *testing.T, h http.Handler, method, path, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lurelab")
}

func TestTurnRequiresAPIKey(t *testing.T) {
	h := newTestHandler(t)
	body := `{"sessionId":"s1","message":{"sender":"scammer","text":"hello"}}`

	rec := doRequest(t, h, http.MethodPost, "/api/v1/conversation/turn", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/v1/conversation/turn", "wrong-key", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTurnValidation(t *testing.T) {
	h := newTestHandler(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"sessionId":`},
		{"missing session id", `{"message":{"sender":"scammer","text":"hi"}}`},
		{"missing text", `{"sessionId":"s1","message":{"sender":"scammer"}}`},
		{"bad sender", `{"sessionId":"s1","message":{"sender":"alien","text":"hi"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/v1/conversation/turn", testAPIKey, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTurnAndSessionLookup(t *testing.T) {
	h := newTestHandler(t)
	body := `{"sessionId":"scam-42","message":{"sender":"scammer","text":"Your SBI bank account will be blocked today. Verify immediately."}}`

	rec := doRequest(t, h, http.MethodPost, "/api/v1/conversation/turn", testAPIKey, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var turnResp models.TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turnResp))
	assert.Equal(t, "success", turnResp.Status)
	assert.NotEmpty(t, turnResp.Reply)

	rec = doRequest(t, h, http.MethodGet, "/api/v1/sessions/scam-42", testAPIKey, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "scam-42", summary.SessionID)
	assert.True(t, summary.ScamDetected)
}

func TestSessionNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/sessions/nope", testAPIKey, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeText(t *testing.T) {
	h := newTestHandler(t)
	body := `{"text":"Share your OTP immediately or your account will be blocked"}`

	rec := doRequest(t, h, http.MethodPost, "/api/v1/analyze/text", testAPIKey, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.DetectionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.ScamDetected)
	assert.NotEmpty(t, result.Indicators)
}
