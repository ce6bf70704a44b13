package terminal

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

const defaultBaseURL = "https://api.terminal.africa/v1"

// APIError represents a failure reported by the carrier aggregator. Callers
// surface a user-facing message and never retry automatically.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("carrier api: %s (status %d)", e.Message, e.StatusCode)
}

// Config holds carrier aggregator credentials and transport settings.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client talks to the carrier-aggregation HTTP API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds an API client. The timeout bounds every upstream call.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// Countries lists the countries the aggregator ships between.
func (c *Client) Countries(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/countries", nil, nil)
}

// States lists states within a country.
func (c *Client) States(ctx context.Context, country string) (json.RawMessage, error) {
	q := url.Values{"country_code": {country}}
	return c.raw(ctx, http.MethodGet, "/states", q, nil)
}

// Cities lists cities within a country, optionally scoped to a state.
func (c *Client) Cities(ctx context.Context, country, state string) (json.RawMessage, error) {
	q := url.Values{"country_code": {country}}
	if state != "" {
		q.Set("state_code", state)
	}
	return c.raw(ctx, http.MethodGet, "/cities", q, nil)
}

// CreateAddress mirrors an address into the aggregator.
func (c *Client) CreateAddress(ctx context.Context, addr Address) (CreatedAddress, error) {
	var created CreatedAddress
	if err := c.do(ctx, http.MethodPost, "/addresses", nil, addr, &created); err != nil {
		return CreatedAddress{}, err
	}
	return created, nil
}

// UpdateAddress updates a previously mirrored address.
func (c *Client) UpdateAddress(ctx context.Context, addressID string, addr Address) error {
	return c.do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(addressID), nil, addr, nil)
}

// QuotesForShipment fetches rate quotes for an address/parcel combination.
func (c *Client) QuotesForShipment(ctx context.Context, req ShipmentRequest) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodPost, "/rates/shipment", nil, req)
}

// CreateQuickShipment books a shipment with the aggregator.
func (c *Client) CreateQuickShipment(ctx context.Context, req ShipmentRequest) (ShipmentData, error) {
	var data ShipmentData
	if err := c.do(ctx, http.MethodPost, "/shipments/quick", nil, req, &data); err != nil {
		return ShipmentData{}, err
	}
	if data.ShipmentID == "" {
		return ShipmentData{}, &APIError{StatusCode: http.StatusBadGateway, Message: "no shipment id in response"}
	}
	return data, nil
}

// ArrangePickup schedules carrier pickup for a booked shipment.
func (c *Client) ArrangePickup(ctx context.Context, req PickupRequest) error {
	return c.do(ctx, http.MethodPost, "/shipments/pickup", nil, req, nil)
}

// TrackShipment returns the aggregator's tracking payload for a shipment.
func (c *Client) TrackShipment(ctx context.Context, shipmentID string) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/shipments/track/"+url.PathEscape(shipmentID), nil, nil)
}

// CancelShipment cancels a shipment with the aggregator.
func (c *Client) CancelShipment(ctx context.Context, shipmentID string) error {
	body := map[string]string{"shipment_id": shipmentID}
	return c.do(ctx, http.MethodPost, "/shipments/cancel", nil, body, nil)
}

// Carriers lists available carriers.
func (c *Client) Carriers(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/carriers", nil, nil)
}

// Carrier fetches a single carrier.
func (c *Client) Carrier(ctx context.Context, carrierID string) (json.RawMessage, error) {
	return c.raw(ctx, http.MethodGet, "/carriers/"+url.PathEscape(carrierID), nil, nil)
}

func (c *Client) raw(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var payload json.RawMessage
	if err := c.request(ctx, method, path, query, body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload json.RawMessage
	if err := c.request(ctx, method, path, query, body, &payload); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{StatusCode: http.StatusBadGateway, Message: "unusable response payload"}
	}
	return nil
}

// request performs the HTTP exchange and unwraps the optional {data: payload}
// envelope: responses may be either the payload itself or the envelope, and
// callers must accept both shapes.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, payload *json.RawMessage) error {
	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &failure)
		if failure.Message == "" {
			failure.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: failure.Message}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		*payload = envelope.Data
		return nil
	}
	*payload = raw
	return nil
}
