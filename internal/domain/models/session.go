package models

import "time"

// EngagementMetrics tracks conversation volume for a session. Recomputed
// from the current message list on every turn.
type EngagementMetrics struct {
	TotalMessagesExchanged    int     `json:"totalMessagesExchanged"`
	NumberOfTurns             int     `json:"numberOfTurns"`
	EngagementDurationSeconds float64 `json:"engagementDurationSeconds"`
	ScamDetectionConfidence   float64 `json:"scamDetectionConfidence"`
}

// SessionState is the aggregate root for a conversation. It is the only
// entity with a storage-backed lifecycle: created on the first turn of a
// session id, persisted after every turn, logically closed but never
// hard-deleted.
type SessionState struct {
	SessionID    string                `json:"sessionId"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	Messages     []Message             `json:"messages"`
	Detection    *DetectionResult      `json:"detection,omitempty"`
	Intelligence ExtractedIntelligence `json:"extractedIntelligence"`
	Metrics      EngagementMetrics     `json:"engagementMetrics"`
	IsActive     bool                  `json:"isActive"`
	// CallbackSent latches false→true on the first successful callback
	// delivery and is never reset.
	CallbackSent bool   `json:"callbackSent"`
	AgentNotes   string `json:"agentNotes"`
	Channel      string `json:"channel,omitempty"`
	Language     string `json:"language,omitempty"`
	Locale       string `json:"locale,omitempty"`
}

// NewSessionState creates an empty active session.
func NewSessionState(sessionID string) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		SessionID: sessionID,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
}

// AppendMessage adds a message to the transcript.
func (s *SessionState) AppendMessage(m Message) {
	s.Messages = append(s.Messages, m)
}

// MergeHistory appends supplied prior-history messages not already present.
// The dedup key is (sender, text): identical text from the same sender at
// different times collapses into one message.
func (s *SessionState) MergeHistory(history []Message) {
	type key struct {
		sender Sender
		text   string
	}
	existing := make(map[key]struct{}, len(s.Messages))
	for _, m := range s.Messages {
		existing[key{m.Sender, m.Text}] = struct{}{}
	}
	for _, m := range history {
		k := key{m.Sender, m.Text}
		if _, ok := existing[k]; ok {
			continue
		}
		existing[k] = struct{}{}
		s.Messages = append(s.Messages, m)
	}
}

// ScammerMessageCount counts counterparty turns.
func (s *SessionState) ScammerMessageCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Sender == SenderScammer {
			n++
		}
	}
	return n
}

// AgentMessageCount counts replies authored by the honeypot agent.
func (s *SessionState) AgentMessageCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Sender == SenderAgent {
			n++
		}
	}
	return n
}

// CallbackPayload is the read-only projection of a session reported to the
// external evaluator.
type CallbackPayload struct {
	SessionID              string                `json:"sessionId"`
	ScamDetected           bool                  `json:"scamDetected"`
	TotalMessagesExchanged int                   `json:"totalMessagesExchanged"`
	ExtractedIntelligence  ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes             string                `json:"agentNotes"`
}

// BuildCallbackPayload projects the session into the evaluator payload.
func (s *SessionState) BuildCallbackPayload() CallbackPayload {
	detected := false
	if s.Detection != nil {
		detected = s.Detection.ScamDetected
	}
	return CallbackPayload{
		SessionID:              s.SessionID,
		ScamDetected:           detected,
		TotalMessagesExchanged: s.Metrics.TotalMessagesExchanged,
		ExtractedIntelligence:  s.Intelligence,
		AgentNotes:             s.AgentNotes,
	}
}

// SessionSummary is the read-only monitoring projection of a session.
type SessionSummary struct {
	SessionID              string                `json:"sessionId"`
	CreatedAt              time.Time             `json:"createdAt"`
	UpdatedAt              time.Time             `json:"updatedAt"`
	IsActive               bool                  `json:"isActive"`
	CallbackSent           bool                  `json:"callbackSent"`
	ScamDetected           bool                  `json:"scamDetected"`
	ScamType               ScamType              `json:"scamType"`
	ConfidenceScore        float64               `json:"confidenceScore"`
	TotalMessagesExchanged int                   `json:"totalMessagesExchanged"`
	ExtractedIntelligence  ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes             string                `json:"agentNotes"`
}

// BuildSummary projects the session into its monitoring view.
func (s *SessionState) BuildSummary() SessionSummary {
	summary := SessionSummary{
		SessionID:              s.SessionID,
		CreatedAt:              s.CreatedAt,
		UpdatedAt:              s.UpdatedAt,
		IsActive:               s.IsActive,
		CallbackSent:           s.CallbackSent,
		ScamType:               ScamTypeUnknown,
		TotalMessagesExchanged: s.Metrics.TotalMessagesExchanged,
		ExtractedIntelligence:  s.Intelligence,
		AgentNotes:             s.AgentNotes,
	}
	if s.Detection != nil {
		summary.ScamDetected = s.Detection.ScamDetected
		summary.ScamType = s.Detection.ScamType
		summary.ConfidenceScore = s.Detection.ConfidenceScore
	}
	return summary
}
