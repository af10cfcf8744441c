// Package payment is the HTTP client for the hosted checkout provider. The
// storefront never charges cards itself: it sends the cart lines, receives a
// session id and a redirect URL, and creates its own order record only after
// the user returns from the hosted flow.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

var ErrSessionRejected = errors.New("payment provider rejected the session")

// SessionLineItem is what the provider needs to render the hosted page.
type SessionLineItem struct {
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	Platform string  `json:"platform"`
}

type Session struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

type sessionResponse struct {
	Session
	Error string `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Session]
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:    "payment-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[*Session](settings),
	}
}

// CreateSession posts the line items and returns the hosted-payment session.
func (c *Client) CreateSession(ctx context.Context, items []SessionLineItem) (*Session, error) {
	return c.breaker.Execute(func() (*Session, error) {
		return c.createSession(ctx, items)
	})
}

func (c *Client) createSession(ctx context.Context, items []SessionLineItem) (*Session, error) {
	body, err := json.Marshal(map[string]interface{}{"items": items})
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	// Any truthy error field means failure, regardless of status code.
	if decoded.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSessionRejected, decoded.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}
	if decoded.SessionID == "" || decoded.RedirectURL == "" {
		return nil, errors.New("payment provider returned an incomplete session")
	}

	return &decoded.Session, nil
}
