package shipment

import "time"

// Shipment lifecycle states. Progression beyond pending is driven by the
// carrier's tracking data; delivered and cancelled are terminal.
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Cancellable reports whether a shipment in the given status may still be
// cancelled.
func Cancellable(status string) bool {
	return status != StatusDelivered && status != StatusCancelled
}

// AddressSnapshot is an address copied into a shipment at booking time.
// Later edits of the source address never alter historical shipments.
type AddressSnapshot struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
}

// Item is one line item in a parcel.
type Item struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Value       int64   `json:"value"`
	Currency    string  `json:"currency"`
	Weight      float64 `json:"weight"`
}

// ParcelSnapshot describes the goods as booked.
type ParcelSnapshot struct {
	Description string `json:"description"`
	WeightUnit  string `json:"weightUnit"`
	Items       []Item `json:"items"`
}

// CarrierSnapshot records the carrier chosen at booking time.
type CarrierSnapshot struct {
	Name      string `json:"name"`
	CarrierID string `json:"carrierId"`
}

// RateSnapshot records the rate the user accepted.
type RateSnapshot struct {
	RateID   string `json:"rateId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Shipment is a booked shipment owned by exactly one user. Cost is immutable
// once set and shipments are never deleted.
type Shipment struct {
	ID              string
	UserID          string
	ExternalID      string
	TrackingNumber  string
	Status          string
	PickupAddress   AddressSnapshot
	DeliveryAddress AddressSnapshot
	Parcel          ParcelSnapshot
	Carrier         CarrierSnapshot
	Rate            RateSnapshot
	Cost            int64
	IsPaid          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MonthlyStat aggregates bookings for one calendar month.
type MonthlyStat struct {
	Year      int
	Month     int
	Count     int
	TotalCost int64
}
