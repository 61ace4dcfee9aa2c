package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services/ai"
	"lurelab/pkg/logger"
)

// ErrSessionNotFound is returned by lookups for a session id that has never
// been seen.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists session state. Load returns (nil, nil) when the
// session does not exist.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*models.SessionState, error)
	Save(ctx context.Context, state *models.SessionState) error
	MarkCallbackSent(ctx context.Context, sessionID string) error
}

// Replies used outside the persona engine.
const (
	neutralReply = "Thank you for the information. I'll look into this."
	errorReply   = "I'm sorry, I'm having trouble understanding. Could you repeat that?"
)

// CoordinatorConfig carries the engagement tuning knobs.
type CoordinatorConfig struct {
	MaxTurns               int
	MinTurnsBeforeCallback int
}

// SessionCoordinator orchestrates one conversation turn end to end:
// classify, extract, reply, persist, and fire the final callback once the
// session has earned it. Safe for concurrent use; turns for the same
// session are serialized, turns for different sessions proceed in parallel.
type SessionCoordinator struct {
	store      SessionStore
	classifier *ai.Classifier
	extractor  *ai.Extractor
	callback   CallbackSender
	cfg        CoordinatorConfig
	log        *logger.Logger

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	engines map[string]*StrategyEngine

	// newRng seeds per-session randomness; swapped in tests for
	// deterministic replies.
	newRng func(sessionID string) *rand.Rand
}

// NewSessionCoordinator wires the coordinator.
func NewSessionCoordinator(
	store SessionStore,
	classifier *ai.Classifier,
	extractor *ai.Extractor,
	callback CallbackSender,
	cfg CoordinatorConfig,
	log *logger.Logger,
) *SessionCoordinator {
	return &SessionCoordinator{
		store:      store,
		classifier: classifier,
		extractor:  extractor,
		callback:   callback,
		cfg:        cfg,
		log:        log.WithComponent("coordinator"),
		locks:      make(map[string]*sync.Mutex),
		engines:    make(map[string]*StrategyEngine),
		newRng: func(string) *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// sessionLock returns the mutex serializing turns for one session id.
func (c *SessionCoordinator) sessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sessionID] = l
	}
	return l
}

// engineFor returns the session's strategy engine, creating one on first
// use. A recreated engine (after restart) resumes at the session's agent
// turn count so the engagement budget is not reset.
func (c *SessionCoordinator) engineFor(state *models.SessionState, scamType models.ScamType) *StrategyEngine {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.engines[state.SessionID]; ok {
		return e
	}
	e := NewStrategyEngine(state.SessionID, scamType, c.cfg.MaxTurns, c.newRng(state.SessionID), c.log)
	e.turnCount = state.AgentMessageCount()
	c.engines[state.SessionID] = e
	return e
}

// ProcessTurn handles one inbound message. It always returns a response:
// internal failures degrade to an apologetic reply with status "error"
// rather than breaking the conversational channel.
func (c *SessionCoordinator) ProcessTurn(ctx context.Context, req models.TurnRequest) (resp models.TurnResponse) {
	start := time.Now()
	log := c.log.WithSession(req.SessionID)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("turn processing panicked")
			resp = models.TurnResponse{Status: "error", Reply: errorReply}
		}
	}()

	lock := c.sessionLock(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := c.store.Load(ctx, req.SessionID)
	if err != nil {
		log.Error().Err(err).Msg("session load failed")
		return models.TurnResponse{Status: "error", Reply: errorReply}
	}
	if state == nil {
		state = models.NewSessionState(req.SessionID)
		if req.Metadata != nil {
			state.Channel = req.Metadata.Channel
			state.Language = req.Metadata.Language
			state.Locale = req.Metadata.Locale
		}
	}

	state.AppendMessage(req.Message)
	state.MergeHistory(req.ConversationHistory)

	detection := c.classifier.Classify(state.Messages)
	state.Detection = &detection

	state.Intelligence.Merge(c.extractor.Extract(state.Messages))

	var reply string
	if detection.ScamDetected {
		engine := c.engineFor(state, detection.ScamType)
		reply = engine.Respond(state.Messages, state.Intelligence)
		state.AgentNotes = engine.GenerateNotes(state.Intelligence)
		if !engine.ShouldContinue() {
			state.IsActive = false
		}
	} else {
		reply = neutralReply
	}

	state.AppendMessage(models.Message{
		Sender:    models.SenderAgent,
		Text:      reply,
		Timestamp: time.Now().UnixMilli(),
	})

	state.Metrics.TotalMessagesExchanged = len(state.Messages)
	state.Metrics.NumberOfTurns = state.ScammerMessageCount()
	state.Metrics.ScamDetectionConfidence = detection.ConfidenceScore
	state.Metrics.EngagementDurationSeconds = time.Since(start).Seconds()
	state.UpdatedAt = time.Now().UTC()

	c.maybeSendCallback(ctx, state, log)

	status := "success"
	if err := c.store.Save(ctx, state); err != nil {
		log.Error().Err(err).Msg("session save failed")
		status = "error"
	}

	log.Info().
		Bool("scam_detected", detection.ScamDetected).
		Float64("confidence", detection.ConfidenceScore).
		Str("scam_type", string(detection.ScamType)).
		Int("messages", len(state.Messages)).
		Msg("turn processed")

	return models.TurnResponse{Status: status, Reply: reply}
}

// maybeSendCallback fires the evaluator callback when the session qualifies:
// a confirmed scam, enough scammer turns, actual intelligence, and no prior
// successful delivery. The sent flag latches only on success, so a failed
// delivery is retried on a later turn.
func (c *SessionCoordinator) maybeSendCallback(ctx context.Context, state *models.SessionState, log *logger.Logger) {
	if state.CallbackSent || c.callback == nil {
		return
	}
	if state.Detection == nil || !state.Detection.ScamDetected {
		return
	}
	if state.ScammerMessageCount() < c.cfg.MinTurnsBeforeCallback {
		return
	}
	if !state.Intelligence.HasIntelligence() {
		return
	}

	if state.AgentNotes == "" {
		state.AgentNotes = minimalNotes(state)
	}
	if err := c.callback.Send(ctx, state.BuildCallbackPayload()); err != nil {
		log.Warn().Err(err).Msg("callback not delivered, will retry next turn")
		return
	}

	state.CallbackSent = true
	if err := c.store.MarkCallbackSent(ctx, state.SessionID); err != nil {
		log.Warn().Err(err).Msg("callback sent flag not persisted")
	}
}

// GetSessionSummary returns the monitoring view of a session.
func (c *SessionCoordinator) GetSessionSummary(ctx context.Context, sessionID string) (models.SessionSummary, error) {
	state, err := c.store.Load(ctx, sessionID)
	if err != nil {
		return models.SessionSummary{}, err
	}
	if state == nil {
		return models.SessionSummary{}, ErrSessionNotFound
	}
	return state.BuildSummary(), nil
}

// ForceCallback sends the callback for a session immediately, bypassing the
// turn-count and intelligence gates but not the at-most-once latch.
func (c *SessionCoordinator) ForceCallback(ctx context.Context, sessionID string) error {
	lock := c.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := c.store.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	if state == nil {
		return ErrSessionNotFound
	}
	if state.CallbackSent {
		return nil
	}
	if c.callback == nil {
		return errors.New("callback delivery not configured")
	}
	if state.AgentNotes == "" {
		state.AgentNotes = minimalNotes(state)
	}
	if err := c.callback.Send(ctx, state.BuildCallbackPayload()); err != nil {
		return err
	}
	state.CallbackSent = true
	if err := c.store.MarkCallbackSent(ctx, sessionID); err != nil {
		c.log.WithSession(sessionID).Warn().Err(err).Msg("callback sent flag not persisted")
	}
	return nil
}

// minimalNotes covers callbacks fired before an engagement engine exists.
func minimalNotes(state *models.SessionState) string {
	scamType := models.ScamTypeUnknown
	if state.Detection != nil {
		scamType = state.Detection.ScamType
	}
	return fmt.Sprintf("Scammer attempted %s. Extracted: %s. Engaged for %d turns.",
		scamType, state.Intelligence.Summary(), state.ScammerMessageCount())
}

// QuickCheck classifies a single piece of text outside any session.
func (c *SessionCoordinator) QuickCheck(text string) models.DetectionResult {
	return c.classifier.QuickCheck(text)
}
