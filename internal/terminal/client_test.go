package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestUnwrapsDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"shipment_id":"ext-1","tracking_id":"TRK-1"}}`)) // nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL})
	data, err := client.CreateQuickShipment(context.Background(), ShipmentRequest{})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	if data.ShipmentID != "ext-1" || data.TrackingID != "TRK-1" {
		t.Fatalf("unexpected shipment data: %+v", data)
	}
}

func TestRequestAcceptsBarePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"shipment_id":"ext-2","tracking_id":"TRK-2"}`)) // nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL})
	data, err := client.CreateQuickShipment(context.Background(), ShipmentRequest{})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	if data.ShipmentID != "ext-2" {
		t.Fatalf("unexpected shipment data: %+v", data)
	}
}

func TestRequestMapsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid address"}`)) // nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL})
	_, err := client.QuotesForShipment(context.Background(), ShipmentRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity || apiErr.Message != "invalid address" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestRawPassesPayloadThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("country_code") != "NG" {
			t.Errorf("missing country query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"name":"Lagos"}]}`)) // nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL})
	payload, err := client.States(context.Background(), "NG")
	if err != nil {
		t.Fatalf("states: %v", err)
	}

	var states []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(payload, &states); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(states) != 1 || states[0].Name != "Lagos" {
		t.Fatalf("unexpected payload: %s", payload)
	}
}

func TestMissingShipmentIDRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`)) // nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL})
	_, err := client.CreateQuickShipment(context.Background(), ShipmentRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError for missing shipment id, got %v", err)
	}
}
