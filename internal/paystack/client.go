package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// GatewayError represents a failure reported by the payment gateway.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %s (status %d)", e.Message, e.StatusCode)
}

// Config holds gateway credentials and transport settings.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// InitializeInput captures the data needed to start a hosted payment. Amount is
// in whole NGN; the client converts to kobo on the wire.
type InitializeInput struct {
	Email       string
	Amount      int64
	Reference   string
	CallbackURL string
}

// Authorization is the redirect payload returned by a successful initialize.
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult is the gateway's record of a transaction. Raw carries the full
// gateway payload for storage as transaction metadata.
type VerifyResult struct {
	Status string
	Amount int64
	Raw    json.RawMessage
}

// Succeeded reports whether the gateway considers the payment successful.
func (v VerifyResult) Succeeded() bool {
	return v.Status == "success"
}

// Gateway is the payment surface the funding orchestrator consumes.
type Gateway interface {
	Initialize(ctx context.Context, input InitializeInput) (Authorization, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
}

// Client talks to the Paystack HTTP API with bearer authentication.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a gateway client. The timeout bounds every upstream call.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Initialize starts a hosted payment and returns the redirect authorization.
func (c *Client) Initialize(ctx context.Context, input InitializeInput) (Authorization, error) {
	body := map[string]any{
		"email":        input.Email,
		"amount":       input.Amount * 100, // kobo
		"reference":    input.Reference,
		"callback_url": input.CallbackURL,
	}

	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &auth); err != nil {
		return Authorization{}, err
	}
	if auth.AuthorizationURL == "" {
		return Authorization{}, &GatewayError{StatusCode: http.StatusBadGateway, Message: "no authorization url in response"}
	}
	return auth, nil
}

// Verify fetches the gateway's record for a transaction reference. The
// client-supplied success signal is never trusted; this is the source of truth.
func (c *Client) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	var data json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return VerifyResult{}, err
	}

	var record struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return VerifyResult{}, &GatewayError{StatusCode: http.StatusBadGateway, Message: "unusable verification payload"}
	}
	return VerifyResult{Status: record.Status, Amount: record.Amount / 100, Raw: data}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &GatewayError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &GatewayError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}

	var envelope struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &GatewayError{StatusCode: http.StatusBadGateway, Message: "unusable response payload"}
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
		msg := envelope.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &GatewayError{StatusCode: http.StatusBadGateway, Message: "unusable response payload"}
	}
	return nil
}
