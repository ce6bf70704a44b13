package shipment

import "time"

// addressPayload is an address as received over HTTP.
type addressPayload struct {
	FirstName     string `json:"firstName" validate:"required"`
	LastName      string `json:"lastName" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required"`
	Line1         string `json:"line1" validate:"required"`
	Line2         string `json:"line2"`
	City          string `json:"city" validate:"required"`
	State         string `json:"state" validate:"required"`
	Country       string `json:"country" validate:"required"`
	Zip           string `json:"zip"`
	IsResidential *bool  `json:"isResidential"`
}

type itemPayload struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" validate:"min=0"`
	Value       int64   `json:"value" validate:"min=0"`
	Currency    string  `json:"currency"`
	Weight      float64 `json:"weight" validate:"required,gt=0"`
}

type parcelPayload struct {
	Description string        `json:"description" validate:"required"`
	WeightUnit  string        `json:"weightUnit"`
	Items       []itemPayload `json:"items" validate:"required,min=1,dive"`
}

type ratePayload struct {
	RateID      string `json:"rateId" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,min=1"`
	Currency    string `json:"currency"`
	CarrierName string `json:"carrierName"`
	CarrierID   string `json:"carrierId"`
}

type getRatesRequest struct {
	PickupAddress   addressPayload `json:"pickupAddress" validate:"required"`
	DeliveryAddress addressPayload `json:"deliveryAddress" validate:"required"`
	Parcel          parcelPayload  `json:"parcel" validate:"required"`
}

type createShipmentRequest struct {
	PickupAddress   addressPayload `json:"pickupAddress" validate:"required"`
	DeliveryAddress addressPayload `json:"deliveryAddress" validate:"required"`
	Parcel          parcelPayload  `json:"parcel" validate:"required"`
	Rate            ratePayload    `json:"rate" validate:"required"`
}

func (p addressPayload) toInput() AddressInput {
	return AddressInput{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Phone:         p.Phone,
		Line1:         p.Line1,
		Line2:         p.Line2,
		City:          p.City,
		State:         p.State,
		Country:       p.Country,
		Zip:           p.Zip,
		IsResidential: p.IsResidential,
	}
}

func (p parcelPayload) toInput() ParcelInput {
	items := make([]ItemInput, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, ItemInput{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    item.Quantity,
			Value:       item.Value,
			Currency:    item.Currency,
			Weight:      item.Weight,
		})
	}
	return ParcelInput{Description: p.Description, WeightUnit: p.WeightUnit, Items: items}
}

func (p ratePayload) toInput() RateInput {
	return RateInput{
		RateID:      p.RateID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		CarrierName: p.CarrierName,
		CarrierID:   p.CarrierID,
	}
}

// View is the JSON projection of a shipment.
type View struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"externalId,omitempty"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	Status          string          `json:"status"`
	PickupAddress   AddressSnapshot `json:"pickupAddress"`
	DeliveryAddress AddressSnapshot `json:"deliveryAddress"`
	Parcel          ParcelSnapshot  `json:"parcel"`
	Carrier         CarrierSnapshot `json:"carrier"`
	Rate            RateSnapshot    `json:"rate"`
	Cost            int64           `json:"cost"`
	IsPaid          bool            `json:"isPaid"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

// NewView projects a shipment for JSON responses.
func NewView(s Shipment) View {
	return View{
		ID:              s.ID,
		ExternalID:      s.ExternalID,
		TrackingNumber:  s.TrackingNumber,
		Status:          s.Status,
		PickupAddress:   s.PickupAddress,
		DeliveryAddress: s.DeliveryAddress,
		Parcel:          s.Parcel,
		Carrier:         s.Carrier,
		Rate:            s.Rate,
		Cost:            s.Cost,
		IsPaid:          s.IsPaid,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
	}
}

// NewViews projects a slice of shipments.
func NewViews(shipments []Shipment) []View {
	views := make([]View, 0, len(shipments))
	for _, s := range shipments {
		views = append(views, NewView(s))
	}
	return views
}
