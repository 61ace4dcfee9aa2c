package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurelab/internal/domain/models"
	"lurelab/internal/domain/services/ai"
	"lurelab/internal/infrastructure/repository"
	"lurelab/pkg/logger"
)

type fakeCallback struct {
	mu        sync.Mutex
	failTimes int
	payloads  []models.CallbackPayload
}

func (f *fakeCallback) Send(_ context.Context, payload models.CallbackPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimes > 0 {
		f.failTimes--
		return errors.New("delivery refused")
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeCallback) delivered() []models.CallbackPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CallbackPayload(nil), f.payloads...)
}

type failingSaveStore struct {
	SessionStore
	saveErr error
}

func (s *failingSaveStore) Save(ctx context.Context, state *models.SessionState) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.SessionStore.Save(ctx, state)
}

func newTestCoordinator(t *testing.T, store SessionStore, sender CallbackSender) *SessionCoordinator {
	t.Helper()
	log := logger.NewDefault()
	catalog := ai.NewCatalog()
	c := NewSessionCoordinator(
		store,
		ai.NewClassifier(catalog, 0.6, log),
		ai.NewExtractor(catalog, "91", log),
		sender,
		CoordinatorConfig{MaxTurns: 15, MinTurnsBeforeCallback: 3},
		log,
	)
	c.newRng = func(string) *rand.Rand { return rand.New(rand.NewSource(1)) }
	return c
}

func turn(sessionID, text string) models.TurnRequest {
	return models.TurnRequest{
		SessionID: sessionID,
		Message:   models.Message{Sender: models.SenderScammer, Text: text},
	}
}

func TestProcessTurnBenignMessage(t *testing.T) {
	store := repository.NewMemorySessionStore()
	c := newTestCoordinator(t, store, &fakeCallback{})

	resp := c.ProcessTurn(context.Background(), turn("benign-1", "hi, are we still meeting tomorrow?"))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, neutralReply, resp.Reply)

	state, err := store.Load(context.Background(), "benign-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.False(t, state.Detection.ScamDetected)
	assert.Len(t, state.Messages, 2)
}

func TestProcessTurnScamEngagementAndCallback(t *testing.T) {
	store := repository.NewMemorySessionStore()
	sender := &fakeCallback{}
	c := newTestCoordinator(t, store, sender)
	ctx := context.Background()
	id := "scam-1"

	resp := c.ProcessTurn(ctx, turn(id, "Your SBI bank account will be blocked today. Verify immediately."))
	assert.Equal(t, "success", resp.Status)
	assert.NotEqual(t, neutralReply, resp.Reply)
	assert.Empty(t, sender.delivered(), "callback must wait for enough scammer turns")

	c.ProcessTurn(ctx, turn(id, "Transfer the fee to fraud@paytm via UPI right away."))
	assert.Empty(t, sender.delivered())

	c.ProcessTurn(ctx, turn(id, "Why the delay? Do it immediately."))
	delivered := sender.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, id, delivered[0].SessionID)
	assert.True(t, delivered[0].ScamDetected)
	assert.Contains(t, delivered[0].ExtractedIntelligence.UPIIDs, "fraud@paytm")
	assert.NotEmpty(t, delivered[0].AgentNotes)

	// Further turns must not trigger a second delivery.
	c.ProcessTurn(ctx, turn(id, "Are you still there? Send it now."))
	assert.Len(t, sender.delivered(), 1)

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.CallbackSent)
	assert.True(t, state.Detection.ScamDetected)
	assert.Equal(t, models.ScamTypeUPIFraud, state.Detection.ScamType)
}

func TestProcessTurnIntelligenceAccumulates(t *testing.T) {
	store := repository.NewMemorySessionStore()
	c := newTestCoordinator(t, store, &fakeCallback{})
	ctx := context.Background()
	id := "accum-1"

	c.ProcessTurn(ctx, turn(id, "Urgent: send money to fraud@ybl via UPI immediately"))
	c.ProcessTurn(ctx, turn(id, "Or call 9876543210 right now"))

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, state.Intelligence.UPIIDs, "fraud@ybl")
	assert.Contains(t, state.Intelligence.PhoneNumbers, "+919876543210")
}

func TestProcessTurnCallbackRetriesAfterFailure(t *testing.T) {
	store := repository.NewMemorySessionStore()
	sender := &fakeCallback{failTimes: 1}
	c := newTestCoordinator(t, store, sender)
	ctx := context.Background()
	id := "retry-1"

	c.ProcessTurn(ctx, turn(id, "Your SBI bank account will be blocked today. Verify immediately."))
	c.ProcessTurn(ctx, turn(id, "Transfer the fee to fraud@paytm via UPI right away."))

	// First eligible turn: delivery fails, flag must stay down.
	c.ProcessTurn(ctx, turn(id, "Why the delay? Do it immediately."))
	assert.Empty(t, sender.delivered())
	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, state.CallbackSent)

	// Next turn retries and succeeds.
	c.ProcessTurn(ctx, turn(id, "This is your last chance, act now."))
	assert.Len(t, sender.delivered(), 1)
	state, err = store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.CallbackSent)
}

func TestProcessTurnMergesHistoryWithoutDuplicates(t *testing.T) {
	store := repository.NewMemorySessionStore()
	c := newTestCoordinator(t, store, &fakeCallback{})
	ctx := context.Background()
	id := "hist-1"

	history := []models.Message{
		{Sender: models.SenderScammer, Text: "Your account is suspended"},
		{Sender: models.SenderAgent, Text: "Why do you need this information?"},
	}

	req := turn(id, "Verify now to restore it")
	req.ConversationHistory = history
	c.ProcessTurn(ctx, req)

	req2 := turn(id, "Did you verify?")
	req2.ConversationHistory = history
	c.ProcessTurn(ctx, req2)

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	// 2 history + 2 inbound + 2 agent replies; re-sent history is dropped.
	assert.Len(t, state.Messages, 6)
}

func TestProcessTurnHistoryEchoingIncomingMessage(t *testing.T) {
	store := repository.NewMemorySessionStore()
	c := newTestCoordinator(t, store, &fakeCallback{})
	ctx := context.Background()
	id := "echo-1"

	// Some clients replay the full transcript, incoming message included.
	req := turn(id, "Your account is suspended, verify now")
	req.ConversationHistory = []models.Message{req.Message}
	c.ProcessTurn(ctx, req)

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.Messages, 2)
	assert.Equal(t, 1, state.ScammerMessageCount())
	assert.Equal(t, 1, state.Metrics.NumberOfTurns)
}

func TestProcessTurnNoCallbackWithoutIdentifiers(t *testing.T) {
	store := repository.NewMemorySessionStore()
	sender := &fakeCallback{}
	c := newTestCoordinator(t, store, sender)
	ctx := context.Background()
	id := "no-intel-1"

	texts := []string{
		"Your SBI bank account will be blocked today. Verify immediately.",
		"This is urgent, act now or the account stays suspended.",
		"Last chance. Confirm right now.",
		"Why the delay? Hurry up.",
	}
	for _, text := range texts {
		c.ProcessTurn(ctx, turn(id, text))
	}

	assert.Empty(t, sender.delivered(), "keyword-only sessions must never report")

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.True(t, state.Detection.ScamDetected)
	assert.False(t, state.Intelligence.HasIntelligence())
	assert.Equal(t, 4, state.Metrics.NumberOfTurns)
}

func TestProcessTurnSaveFailureStillReplies(t *testing.T) {
	store := &failingSaveStore{
		SessionStore: repository.NewMemorySessionStore(),
		saveErr:      errors.New("db down"),
	}
	c := newTestCoordinator(t, store, &fakeCallback{})

	resp := c.ProcessTurn(context.Background(), turn("save-fail-1", "hello"))

	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Reply)
}

func TestGetSessionSummary(t *testing.T) {
	store := repository.NewMemorySessionStore()
	c := newTestCoordinator(t, store, &fakeCallback{})
	ctx := context.Background()

	_, err := c.GetSessionSummary(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	c.ProcessTurn(ctx, turn("sum-1", "Your SBI bank account will be blocked today. Verify immediately."))

	summary, err := c.GetSessionSummary(ctx, "sum-1")
	require.NoError(t, err)
	assert.Equal(t, "sum-1", summary.SessionID)
	assert.True(t, summary.ScamDetected)
	assert.Equal(t, models.ScamTypeBankFraud, summary.ScamType)
	assert.Equal(t, 2, summary.TotalMessagesExchanged)
}

func TestForceCallback(t *testing.T) {
	store := repository.NewMemorySessionStore()
	sender := &fakeCallback{}
	c := newTestCoordinator(t, store, sender)
	ctx := context.Background()

	assert.ErrorIs(t, c.ForceCallback(ctx, "missing"), ErrSessionNotFound)

	c.ProcessTurn(ctx, turn("force-1", "hello there"))
	require.NoError(t, c.ForceCallback(ctx, "force-1"))
	assert.Len(t, sender.delivered(), 1)

	// Second force is a no-op once the flag is latched.
	require.NoError(t, c.ForceCallback(ctx, "force-1"))
	assert.Len(t, sender.delivered(), 1)
}

func TestProcessTurnConcurrentSessions(t *testing.T) {
	store := repository.NewMemorySessionStore()
	c := newTestCoordinator(t, store, &fakeCallback{})
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := []string{"par-1", "par-2", "par-3", "par-4"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				c.ProcessTurn(ctx, turn(id, "Urgent: verify your bank account immediately"))
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		state, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Len(t, state.Messages, 10)
	}
}
