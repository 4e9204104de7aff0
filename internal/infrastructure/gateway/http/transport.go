package httpgateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
)

const (
	maxRetries    = 5
	messageHeader = "X-Message-Id"
)

type transport struct {
	url        string
	codec      ports.MessageCodec
	httpClient *http.Client
	baseDelay  time.Duration
}

// NewTransport returns a transport that POSTs encoded messages to the gateway relay at url.
func NewTransport(url string, codec ports.MessageCodec) (ports.GatewayTransport, error) {
	if url == "" {
		return nil, fmt.Errorf("missing gateway url")
	}
	if codec == nil {
		return nil, fmt.Errorf("missing message codec")
	}
	return &transport{
		url:   url,
		codec: codec,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseDelay: 100 * time.Millisecond,
	}, nil
}

func (t *transport) Send(ctx context.Context, msg domain.CrossChainMessage) error {
	payload, err := t.codec.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", t.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set(messageHeader, msg.ID())

		resp, err := t.httpClient.Do(req)
		if err != nil {
			// Network error - retry with backoff
			if attempt < maxRetries-1 {
				if err := t.wait(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to send message after %d attempts: %w", maxRetries, err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		// Retry on 5xx (server errors), but not on 4xx (client errors)
		if resp.StatusCode >= 500 && attempt < maxRetries-1 {
			if err := t.wait(ctx, attempt); err != nil {
				return err
			}
			continue
		}

		return fmt.Errorf(
			"gateway rejected message with status %d after %d attempts",
			resp.StatusCode, attempt+1,
		)
	}

	return fmt.Errorf("failed to send message after %d attempts", maxRetries)
}

func (t *transport) Close() {
	t.httpClient.CloseIdleConnections()
}

// wait sleeps with exponential backoff: 100ms, 200ms, 400ms, 800ms.
func (t *transport) wait(ctx context.Context, attempt int) error {
	delay := t.baseDelay * time.Duration(1<<uint(attempt))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
