package terminal

import (
	"context"
	"encoding/json"
)

// Address is the wire shape the carrier aggregator expects for an address.
type Address struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	IsResidential bool   `json:"is_residential"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Zip           string `json:"zip"`
}

// ParcelItem is one line item inside a parcel.
type ParcelItem struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	Value       int64   `json:"value"`
	Quantity    int     `json:"quantity"`
	Weight      float64 `json:"weight"`
}

// Parcel describes the goods being shipped.
type Parcel struct {
	Description string       `json:"description"`
	WeightUnit  string       `json:"weight_unit"`
	Items       []ParcelItem `json:"items"`
}

// ShipmentRequest is the payload for both rate quoting and quick shipment
// creation.
type ShipmentRequest struct {
	PickupAddress   Address `json:"pickup_address"`
	DeliveryAddress Address `json:"delivery_address"`
	Parcel          Parcel  `json:"parcel"`
}

// ShipmentData is the subset of the create-shipment response the booking flow
// needs.
type ShipmentData struct {
	ShipmentID string `json:"shipment_id"`
	TrackingID string `json:"tracking_id"`
}

// PickupRequest schedules carrier pickup for a created shipment.
type PickupRequest struct {
	RateID     string `json:"rate_id"`
	ShipmentID string `json:"shipment_id"`
}

// CreatedAddress is the response to a mirrored address creation.
type CreatedAddress struct {
	AddressID string `json:"address_id"`
}

// API is the carrier-aggregation surface the rest of the system consumes.
// Payloads that are passed straight through to API clients stay raw.
type API interface {
	Countries(ctx context.Context) (json.RawMessage, error)
	States(ctx context.Context, country string) (json.RawMessage, error)
	Cities(ctx context.Context, country, state string) (json.RawMessage, error)
	CreateAddress(ctx context.Context, addr Address) (CreatedAddress, error)
	UpdateAddress(ctx context.Context, addressID string, addr Address) error
	QuotesForShipment(ctx context.Context, req ShipmentRequest) (json.RawMessage, error)
	CreateQuickShipment(ctx context.Context, req ShipmentRequest) (ShipmentData, error)
	ArrangePickup(ctx context.Context, req PickupRequest) error
	TrackShipment(ctx context.Context, shipmentID string) (json.RawMessage, error)
	CancelShipment(ctx context.Context, shipmentID string) error
	Carriers(ctx context.Context) (json.RawMessage, error)
	Carrier(ctx context.Context, carrierID string) (json.RawMessage, error)
}
