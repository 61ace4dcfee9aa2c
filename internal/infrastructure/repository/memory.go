package repository

import (
	"context"
	"sync"

	"lurelab/internal/domain/models"
)

// MemorySessionStore keeps sessions in process memory. Used when no
// database is configured and in tests. Loads and saves exchange deep
// copies, so callers never share state with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionState
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.SessionState)}
}

// Load returns a copy of the stored session, or (nil, nil) when absent.
func (s *MemorySessionStore) Load(_ context.Context, sessionID string) (*models.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return cloneSession(state), nil
}

// Save stores a copy of the session keyed by its id.
func (s *MemorySessionStore) Save(_ context.Context, state *models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.SessionID] = cloneSession(state)
	return nil
}

// MarkCallbackSent latches the callback flag on the stored session.
func (s *MemorySessionStore) MarkCallbackSent(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.sessions[sessionID]; ok {
		state.CallbackSent = true
	}
	return nil
}

// Len reports the number of stored sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneSession(state *models.SessionState) *models.SessionState {
	out := *state
	out.Messages = append([]models.Message(nil), state.Messages...)
	if state.Detection != nil {
		d := *state.Detection
		d.Indicators = append([]string(nil), state.Detection.Indicators...)
		out.Detection = &d
	}
	out.Intelligence = cloneIntelligence(state.Intelligence)
	return &out
}

func cloneIntelligence(in models.ExtractedIntelligence) models.ExtractedIntelligence {
	return models.ExtractedIntelligence{
		BankAccounts:       append([]string(nil), in.BankAccounts...),
		IFSCCodes:          append([]string(nil), in.IFSCCodes...),
		UPIIDs:             append([]string(nil), in.UPIIDs...),
		PhishingLinks:      append([]string(nil), in.PhishingLinks...),
		PhoneNumbers:       append([]string(nil), in.PhoneNumbers...),
		SuspiciousKeywords: append([]string(nil), in.SuspiciousKeywords...),
	}
}
