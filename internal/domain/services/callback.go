package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

// CallbackSender delivers a final session report to the external evaluator.
type CallbackSender interface {
	Send(ctx context.Context, payload models.CallbackPayload) error
}

// CallbackClient posts session reports over HTTP. Any response other than
// 200 counts as a failed delivery so the coordinator can retry on a later
// turn.
type CallbackClient struct {
	url    string
	client *http.Client
	log    *logger.Logger
}

// NewCallbackClient builds a client for the given endpoint.
func NewCallbackClient(url string, timeout time.Duration, log *logger.Logger) *CallbackClient {
	return &CallbackClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.WithComponent("callback"),
	}
}

// Send posts the payload as JSON. Each delivery attempt carries a unique
// X-Delivery-ID so the receiver can spot duplicates.
func (c *CallbackClient) Send(ctx context.Context, payload models.CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().
			Err(err).
			Str("session_id", payload.SessionID).
			Msg("callback delivery failed")
		return fmt.Errorf("deliver callback: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("session_id", payload.SessionID).
			Msg("callback rejected")
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}

	c.log.Info().
		Str("session_id", payload.SessionID).
		Dur("elapsed", time.Since(start)).
		Msg("callback delivered")
	return nil
}
