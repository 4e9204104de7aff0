package alertsmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/ports"
)

const (
	serviceName = "nftbridged"

	severityInfo     = "info"
	severityCritical = "critical"

	maxRetries = 5
)

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

type service struct {
	baseUrl     string
	explorerUrl string
	httpClient  *http.Client
	baseDelay   time.Duration
}

// NewService returns an Alerts publisher posting to the AlertManager v2 alerts endpoint.
// explorerURL, if set, is used to link assets in alert descriptions.
func NewService(alertManagerURL, explorerURL string) ports.Alerts {
	return &service{
		baseUrl:     alertManagerURL,
		explorerUrl: strings.TrimSuffix(explorerURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseDelay: 100 * time.Millisecond,
	}
}

func (s *service) Publish(ctx context.Context, topic ports.Topic, message any) error {
	labels := map[string]string{
		"alertname": string(topic),
		"service":   serviceName,
		"severity":  severityInfo,
	}

	desc := ""
	annotations := map[string]string{}
	switch topic {
	case ports.OutboundEmissionFailed:
		annotations["firing_title"] = "🚨 Outbound Emission Failed"
		m, ok := message.(ports.OutboundEmissionFailedAlert)
		if !ok {
			return fmt.Errorf("invalid message type: %T", message)
		}
		desc = formatOutboundEmissionFailedAlert(s.explorerUrl, m)
		labels["severity"] = severityCritical
		labels["asset"] = m.Asset
		labels["emission_id"] = m.EmissionID
	default:
		annotations["firing_title"] = fmt.Sprintf("🔔 %s", topic)
		desc = formatGenericAlert(map[string]any{"event": message})
		if m, ok := message.(map[string]any); ok {
			desc = formatGenericAlert(m)
		}
	}

	annotations["description"] = desc
	alert := Alert{
		Labels:      labels,
		Annotations: annotations,
		StartsAt:    time.Now(),
	}

	if err := s.sendAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to send alert to AlertManager: %w", err)
	}

	return nil
}

func (s *service) sendAlert(ctx context.Context, alerts Alert) error {
	payload, err := json.Marshal([]Alert{alerts})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", s.baseUrl, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if attempt < maxRetries-1 {
				if err := s.backoff(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to send alert after %d attempts: %w", maxRetries, err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		// Only server errors are retried.
		if resp.StatusCode >= 500 && attempt < maxRetries-1 {
			if err := s.backoff(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf(
			"failed to send alert to AlertManager with status %d after %d attempts",
			resp.StatusCode, attempt+1,
		)
	}

	return fmt.Errorf("failed to send alert after %d attempts", maxRetries)
}

// backoff waits baseDelay doubled at every attempt.
func (s *service) backoff(ctx context.Context, attempt int) error {
	delay := s.baseDelay * time.Duration(1<<uint(attempt))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func formatOutboundEmissionFailedAlert(
	explorerUrl string, data ports.OutboundEmissionFailedAlert,
) string {
	lines := make([]string, 0)
	if explorerUrl != "" {
		lines = append(lines, fmt.Sprintf("%s/address/%s", explorerUrl, data.Asset))
	}
	lines = append(lines, fmt.Sprintf("\n*Emission:* `%s`", data.EmissionID))
	lines = append(lines, "\nThe asset is locked in custody but no message reached the gateway.")
	lines = append(lines, fmt.Sprintf("• Asset: %s", data.Asset))
	lines = append(lines, fmt.Sprintf("• Sender: %s", data.Sender))
	lines = append(lines, fmt.Sprintf("• Destination chain: %d", data.DestinationChainID))
	lines = append(lines, fmt.Sprintf("• Reason: %s", data.Reason))
	return strings.Join(lines, "\n")
}

func formatGenericAlert(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("• %s: %v", key, data[key]))
	}
	return strings.Join(lines, "\n")
}
