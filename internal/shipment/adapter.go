package shipment

import (
	"github.com/parcelflow/parcelflow/internal/terminal"
)

// AddressInput is an address as supplied by the caller. IsResidential defaults
// to true when omitted; Line2 and Zip default to empty.
type AddressInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Line1         string
	Line2         string
	City          string
	State         string
	Country       string
	Zip           string
	IsResidential *bool
}

// ItemInput is one parcel line item as supplied by the caller. Currency
// defaults to NGN when omitted.
type ItemInput struct {
	Name        string
	Description string
	Quantity    int
	Value       int64
	Currency    string
	Weight      float64
}

// ParcelInput describes the goods as supplied by the caller. WeightUnit
// defaults to kg.
type ParcelInput struct {
	Description string
	WeightUnit  string
	Items       []ItemInput
}

// RateInput is the rate option the caller selected from a previous quote.
type RateInput struct {
	RateID      string
	Amount      int64
	Currency    string
	CarrierName string
	CarrierID   string
}

// toWireAddress maps a caller address onto the aggregator's wire shape,
// applying the documented defaults. Deeper validation is delegated to the
// aggregator's own rejection.
func toWireAddress(in AddressInput) terminal.Address {
	residential := true
	if in.IsResidential != nil {
		residential = *in.IsResidential
	}
	return terminal.Address{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Phone:         in.Phone,
		IsResidential: residential,
		Line1:         in.Line1,
		Line2:         in.Line2,
		City:          in.City,
		State:         in.State,
		Country:       in.Country,
		Zip:           in.Zip,
	}
}

func toWireParcel(in ParcelInput) terminal.Parcel {
	unit := in.WeightUnit
	if unit == "" {
		unit = "kg"
	}
	items := make([]terminal.ParcelItem, 0, len(in.Items))
	for _, item := range in.Items {
		currency := item.Currency
		if currency == "" {
			currency = "NGN"
		}
		items = append(items, terminal.ParcelItem{
			Name:        item.Name,
			Description: item.Description,
			Currency:    currency,
			Value:       item.Value,
			Quantity:    item.Quantity,
			Weight:      item.Weight,
		})
	}
	return terminal.Parcel{Description: in.Description, WeightUnit: unit, Items: items}
}

func toWireRequest(pickup, delivery AddressInput, parcel ParcelInput) terminal.ShipmentRequest {
	return terminal.ShipmentRequest{
		PickupAddress:   toWireAddress(pickup),
		DeliveryAddress: toWireAddress(delivery),
		Parcel:          toWireParcel(parcel),
	}
}

func snapshotAddress(in AddressInput) AddressSnapshot {
	return AddressSnapshot{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Line1:     in.Line1,
		Line2:     in.Line2,
		City:      in.City,
		State:     in.State,
		Country:   in.Country,
		Zip:       in.Zip,
	}
}

func snapshotParcel(in ParcelInput) ParcelSnapshot {
	wire := toWireParcel(in)
	items := make([]Item, 0, len(wire.Items))
	for _, item := range wire.Items {
		items = append(items, Item{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			Value:       item.Value,
			Currency:    item.Currency,
			Weight:      item.Weight,
		})
	}
	return ParcelSnapshot{Description: wire.Description, WeightUnit: wire.WeightUnit, Items: items}
}
