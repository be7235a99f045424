package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SMSSender posts text messages to an HTTP SMS gateway.
type SMSSender struct {
	gatewayURL string
	token      string
	httpClient *http.Client
}

// NewSMSSender creates a new SMSSender instance.
func NewSMSSender(gatewayURL, token string, timeout time.Duration) *SMSSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMSSender{
		gatewayURL: gatewayURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *SMSSender) Deliver(ctx context.Context, recipient string, msg Rendered) error {
	payload, err := json.Marshal(map[string]string{
		"to":      recipient,
		"message": msg.Text,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: status %d", resp.StatusCode)
	}
	return nil
}
