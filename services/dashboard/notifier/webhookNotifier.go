package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const apiKeyHeader = "X-Api-Key"

var log = logger.GetOrCreate("notifier")

type alertsPayload struct {
	MedicalID string              `json:"medicalId"`
	Tick      uint64              `json:"tick"`
	Alerts    []common.AlertEvent `json:"alerts"`
}

type webhookNotifier struct {
	endpoint  string
	apiKey    string
	medicalID string
	timeout   time.Duration
	client    *http.Client
}

// NewWebhookNotifier creates a notifier that POSTs the alerts raised by a tick to the configured endpoint
func NewWebhookNotifier(endpoint, apiKey, medicalID string, timeout time.Duration) *webhookNotifier {
	return &webhookNotifier{
		endpoint:  endpoint,
		apiKey:    apiKey,
		medicalID: medicalID,
		timeout:   timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Notify sends the alerts of one tick. Ticks without alerts are not sent.
func (n *webhookNotifier) Notify(ctx context.Context, tick uint64, events []common.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}

	body, err := json.Marshal(alertsPayload{
		MedicalID: n.medicalID,
		Tick:      tick,
		Alerts:    events,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create alerts request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set(apiKeyHeader, n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending alerts: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected alerts with status code: %d", resp.StatusCode)
	}

	log.Debug("successfully sent alerts", "endpoint", n.endpoint, "tick", tick, "alerts", len(events))

	return nil
}

// HandleTick is the engine subscriber: delivery failures are logged and dropped
func (n *webhookNotifier) HandleTick(result common.TickResult) {
	if len(result.NewAlerts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	err := n.Notify(ctx, result.Tick, result.NewAlerts)
	if err != nil {
		log.Warn("failed to deliver alerts", "tick", result.Tick, "error", err)
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (n *webhookNotifier) IsInterfaceNil() bool {
	return n == nil
}
