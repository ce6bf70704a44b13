package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/reconcile"
	"github.com/parcelflow/parcelflow/internal/terminal"
)

var (
	// ErrInvalidState occurs when a lifecycle transition is not allowed from
	// the shipment's current status.
	ErrInvalidState = errors.New("shipment cannot be cancelled in its current state")

	// ErrBookingFailed wraps an upstream failure while creating the shipment
	// with the carrier aggregator. Nothing was charged.
	ErrBookingFailed = errors.New("carrier booking failed")

	// ErrPickupFailed wraps an upstream failure while arranging pickup. The
	// upstream shipment exists but no local record was written and nothing
	// was charged.
	ErrPickupFailed = errors.New("pickup arrangement failed")

	// ErrConsistency indicates local state diverged mid-sequence and needs
	// operator reconciliation.
	ErrConsistency = errors.New("inconsistent shipment state")
)

// BookInput carries everything needed to create and pay for a shipment.
type BookInput struct {
	UserID          string
	PickupAddress   AddressInput
	DeliveryAddress AddressInput
	Parcel          ParcelInput
	Rate            RateInput
}

// Service orchestrates shipment booking, cancellation, tracking and listing
// against the carrier aggregator and the wallet ledger.
type Service struct {
	repo      Repository
	ledger    ledger.Ledger
	carrier   terminal.API
	reconcile reconcile.Recorder
	logger    *slog.Logger
}

// NewService wires the shipment orchestrator.
func NewService(repo Repository, lg ledger.Ledger, carrier terminal.API, rec reconcile.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, ledger: lg, carrier: carrier, reconcile: rec, logger: logger}
}

// GetRates quotes shipping rates for the given addresses and parcel. The
// aggregator's response is passed through untouched.
func (s *Service) GetRates(ctx context.Context, pickup, delivery AddressInput, parcel ParcelInput) (json.RawMessage, error) {
	return s.carrier.QuotesForShipment(ctx, toWireRequest(pickup, delivery, parcel))
}

// Book creates a shipment with the carrier, arranges pickup and debits the
// wallet. The balance check runs before any upstream call; insufficient funds
// cost nothing upstream. The debit is the last step so an upstream failure
// never charges the user.
func (s *Service) Book(ctx context.Context, in BookInput) (Shipment, int64, error) {
	if in.Rate.Amount <= 0 {
		return Shipment{}, 0, fmt.Errorf("%w: rate amount must be positive", ErrBookingFailed)
	}

	balance, err := s.ledger.Balance(ctx, in.UserID)
	if err != nil {
		return Shipment{}, 0, err
	}
	if balance < in.Rate.Amount {
		return Shipment{}, 0, ledger.ErrInsufficientFunds
	}

	created, err := s.carrier.CreateQuickShipment(ctx, toWireRequest(in.PickupAddress, in.DeliveryAddress, in.Parcel))
	if err != nil {
		return Shipment{}, 0, fmt.Errorf("%w: %v", ErrBookingFailed, err)
	}

	if err := s.carrier.ArrangePickup(ctx, terminal.PickupRequest{
		RateID:     in.Rate.RateID,
		ShipmentID: created.ShipmentID,
	}); err != nil {
		s.reconcile.Record(ctx, reconcile.Event{
			Kind:       reconcile.KindOrphanedBooking,
			UserID:     in.UserID,
			ShipmentID: created.ShipmentID,
			Detail:     err.Error(),
		})
		return Shipment{}, 0, fmt.Errorf("%w: %v", ErrPickupFailed, err)
	}

	now := time.Now().UTC()
	shp := Shipment{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		ExternalID:      created.ShipmentID,
		TrackingNumber:  created.TrackingID,
		Status:          StatusPending,
		PickupAddress:   snapshotAddress(in.PickupAddress),
		DeliveryAddress: snapshotAddress(in.DeliveryAddress),
		Parcel:          snapshotParcel(in.Parcel),
		Carrier:         CarrierSnapshot{Name: in.Rate.CarrierName, CarrierID: in.Rate.CarrierID},
		Rate:            RateSnapshot{RateID: in.Rate.RateID, Amount: in.Rate.Amount, Currency: currencyOrNGN(in.Rate.Currency)},
		Cost:            in.Rate.Amount,
		IsPaid:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, shp); err != nil {
		s.reconcile.Record(ctx, reconcile.Event{
			Kind:       reconcile.KindOrphanedBooking,
			UserID:     in.UserID,
			ShipmentID: created.ShipmentID,
			Detail:     "upstream shipment booked but local record failed: " + err.Error(),
		})
		return Shipment{}, 0, fmt.Errorf("%w: persisting shipment: %v", ErrConsistency, err)
	}

	res, err := s.ledger.Debit(ctx, ledger.Posting{
		UserID:        in.UserID,
		Amount:        in.Rate.Amount,
		Reference:     fmt.Sprintf("SHP-%d-%s", now.UnixMilli(), shp.ID),
		Description:   "Shipment booking " + shp.ID,
		PaymentMethod: ledger.MethodWallet,
		ShipmentID:    shp.ID,
	})
	if err != nil {
		s.reconcile.Record(ctx, reconcile.Event{
			Kind:       reconcile.KindLedgerGap,
			UserID:     in.UserID,
			ShipmentID: shp.ID,
			Detail:     "shipment persisted but wallet debit failed: " + err.Error(),
		})
		return Shipment{}, 0, fmt.Errorf("%w: debiting wallet: %v", ErrConsistency, err)
	}

	s.logger.Info("shipment booked",
		"shipment_id", shp.ID,
		"user_id", in.UserID,
		"external_id", shp.ExternalID,
		"cost", shp.Cost,
	)
	return shp, res.NewBalance, nil
}

// Cancel cancels a shipment and refunds its cost to the owner's wallet.
// Delivered and already-cancelled shipments are rejected untouched. The
// carrier-side cancel is best effort; a failure there is recorded for
// reconciliation and does not block the refund.
func (s *Service) Cancel(ctx context.Context, userID, shipmentID string) (Shipment, int64, error) {
	shp, err := s.repo.FindByIDForUser(ctx, shipmentID, userID)
	if err != nil {
		return Shipment{}, 0, err
	}
	if !Cancellable(shp.Status) {
		return Shipment{}, 0, ErrInvalidState
	}

	if shp.ExternalID != "" {
		if err := s.carrier.CancelShipment(ctx, shp.ExternalID); err != nil {
			s.reconcile.Record(ctx, reconcile.Event{
				Kind:       reconcile.KindExternalCancelFailed,
				UserID:     userID,
				ShipmentID: shp.ID,
				Detail:     err.Error(),
			})
			s.logger.Warn("carrier cancel failed, continuing with refund",
				"shipment_id", shp.ID, "external_id", shp.ExternalID, "error", err)
		}
	}

	if err := s.repo.UpdateStatus(ctx, shp.ID, StatusCancelled); err != nil {
		return Shipment{}, 0, err
	}
	shp.Status = StatusCancelled

	var newBalance int64
	if shp.IsPaid && shp.Cost > 0 {
		res, err := s.ledger.Credit(ctx, ledger.Posting{
			UserID:        userID,
			Amount:        shp.Cost,
			Reference:     fmt.Sprintf("REF-%d-%s", time.Now().UnixMilli(), shp.ID),
			Description:   "Refund for cancelled shipment " + shp.ID,
			PaymentMethod: ledger.MethodWallet,
			ShipmentID:    shp.ID,
		})
		if err != nil {
			s.reconcile.Record(ctx, reconcile.Event{
				Kind:       reconcile.KindLedgerGap,
				UserID:     userID,
				ShipmentID: shp.ID,
				Detail:     "shipment cancelled but refund credit failed: " + err.Error(),
			})
			return Shipment{}, 0, fmt.Errorf("%w: refunding wallet: %v", ErrConsistency, err)
		}
		newBalance = res.NewBalance
	}

	s.logger.Info("shipment cancelled",
		"shipment_id", shp.ID, "user_id", userID, "refund", shp.Cost)
	return shp, newBalance, nil
}

// Track returns the carrier's live tracking payload for the shipment.
func (s *Service) Track(ctx context.Context, userID, shipmentID string) (json.RawMessage, error) {
	shp, err := s.repo.FindByIDForUser(ctx, shipmentID, userID)
	if err != nil {
		return nil, err
	}
	return s.carrier.TrackShipment(ctx, shp.ExternalID)
}

// Get returns a single shipment scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, shipmentID string) (Shipment, error) {
	return s.repo.FindByIDForUser(ctx, shipmentID, userID)
}

// List returns the user's shipments, newest first.
func (s *Service) List(ctx context.Context, userID, status string, page, limit int) ([]Shipment, int, error) {
	return s.repo.ListByUser(ctx, userID, status, page, limit)
}

func currencyOrNGN(currency string) string {
	if currency == "" {
		return ledger.DefaultCurrency
	}
	return currency
}
