package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vigil-ops/vigil-backend-go/internal/core/alerting"
	"github.com/vigil-ops/vigil-backend-go/pkg/errors"
)

// WebhookSender forwards notification payloads to an external
// communication endpoint over HTTP
type WebhookSender struct {
	url    string
	client *http.Client
	logger *logrus.Logger
}

// NewWebhookSender creates a sender with a bounded request timeout
func NewWebhookSender(url string, timeout time.Duration, logger *logrus.Logger) *WebhookSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// SendExternal implements alerting.ExternalSender
func (w *WebhookSender) SendExternal(ctx context.Context, payload alerting.ExternalPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post webhook: %v", errors.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: webhook returned status %d", errors.ErrDeliveryFailed, resp.StatusCode)
	}

	w.logger.WithFields(logrus.Fields{
		"alert_id": payload.AlertID,
		"channel":  payload.Channel,
		"status":   resp.StatusCode,
	}).Debug("Webhook delivered")
	return nil
}
