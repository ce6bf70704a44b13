package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/logging"
	"github.com/parcelflow/parcelflow/internal/reconcile"
	"github.com/parcelflow/parcelflow/internal/terminal"
)

type fakeCarrier struct {
	createCalls int
	pickupCalls int
	cancelCalls int

	createErr error
	pickupErr error
	cancelErr error

	created terminal.ShipmentData
}

func (f *fakeCarrier) Countries(context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeCarrier) States(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCarrier) Cities(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCarrier) CreateAddress(context.Context, terminal.Address) (terminal.CreatedAddress, error) {
	return terminal.CreatedAddress{}, nil
}
func (f *fakeCarrier) UpdateAddress(context.Context, string, terminal.Address) error { return nil }
func (f *fakeCarrier) QuotesForShipment(context.Context, terminal.ShipmentRequest) (json.RawMessage, error) {
	return json.RawMessage(`[{"rate_id":"rate-1","amount":3000}]`), nil
}
func (f *fakeCarrier) CreateQuickShipment(context.Context, terminal.ShipmentRequest) (terminal.ShipmentData, error) {
	f.createCalls++
	if f.createErr != nil {
		return terminal.ShipmentData{}, f.createErr
	}
	return f.created, nil
}
func (f *fakeCarrier) ArrangePickup(context.Context, terminal.PickupRequest) error {
	f.pickupCalls++
	return f.pickupErr
}
func (f *fakeCarrier) TrackShipment(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(`{"status":"in_transit"}`), nil
}
func (f *fakeCarrier) CancelShipment(context.Context, string) error {
	f.cancelCalls++
	return f.cancelErr
}
func (f *fakeCarrier) Carriers(context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeCarrier) Carrier(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}

type recordingRecorder struct {
	events []reconcile.Event
}

func (r *recordingRecorder) Record(_ context.Context, e reconcile.Event) {
	r.events = append(r.events, e)
}

func testBookInput(userID string, amount int64) BookInput {
	addr := AddressInput{
		FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "+2348000000000",
		Line1: "1 Marina Rd", City: "Lagos", State: "Lagos", Country: "NG",
	}
	return BookInput{
		UserID:          userID,
		PickupAddress:   addr,
		DeliveryAddress: addr,
		Parcel: ParcelInput{
			Description: "Books",
			Items:       []ItemInput{{Name: "Novel", Quantity: 1, Value: 1_500, Weight: 0.5}},
		},
		Rate: RateInput{RateID: "rate-1", Amount: amount, CarrierName: "Speedy", CarrierID: "car-1"},
	}
}

func newTestService(carrier *fakeCarrier, rec *recordingRecorder) (*Service, ledger.Ledger, *MemoryRepository) {
	repo := NewMemoryRepository()
	led := ledger.NewInMemory()
	svc := NewService(repo, led, carrier, rec, logging.Discard())
	return svc, led, repo
}

func TestBookDebitsWalletAndPersistsShipment(t *testing.T) {
	carrier := &fakeCarrier{created: terminal.ShipmentData{ShipmentID: "ext-1", TrackingID: "TRK-1"}}
	rec := &recordingRecorder{}
	svc, led, repo := newTestService(carrier, rec)

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 5_000)

	shp, balance, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if balance != 2_000 {
		t.Fatalf("expected balance 2000 after booking, got %d", balance)
	}
	if shp.Status != StatusPending || shp.ExternalID != "ext-1" || shp.TrackingNumber != "TRK-1" {
		t.Fatalf("unexpected shipment: %+v", shp)
	}
	if !shp.IsPaid || shp.Cost != 3_000 {
		t.Fatalf("shipment must be paid at booked cost, got paid=%v cost=%d", shp.IsPaid, shp.Cost)
	}

	stored, err := repo.FindByIDForUser(ctx, shp.ID, userID)
	if err != nil {
		t.Fatalf("stored shipment: %v", err)
	}
	if stored.PickupAddress.City != "Lagos" {
		t.Fatalf("snapshot missing, got %+v", stored.PickupAddress)
	}
	if len(rec.events) != 0 {
		t.Fatalf("successful booking must not emit reconcile events, got %v", rec.events)
	}
}

func TestBookInsufficientFundsSkipsUpstream(t *testing.T) {
	carrier := &fakeCarrier{created: terminal.ShipmentData{ShipmentID: "ext-1"}}
	svc, led, _ := newTestService(carrier, &recordingRecorder{})

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 1_000)

	_, _, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if carrier.createCalls != 0 || carrier.pickupCalls != 0 {
		t.Fatalf("no upstream calls allowed on insufficient funds, got create=%d pickup=%d",
			carrier.createCalls, carrier.pickupCalls)
	}
	if balance, _ := led.Balance(ctx, userID); balance != 1_000 {
		t.Fatalf("balance must be untouched, got %d", balance)
	}
}

func TestBookPickupFailureWritesNothingLocally(t *testing.T) {
	carrier := &fakeCarrier{
		created:   terminal.ShipmentData{ShipmentID: "ext-1"},
		pickupErr: &terminal.APIError{StatusCode: 500, Message: "pickup unavailable"},
	}
	rec := &recordingRecorder{}
	svc, led, repo := newTestService(carrier, rec)

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 5_000)

	_, _, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if !errors.Is(err, ErrPickupFailed) {
		t.Fatalf("expected pickup failure, got %v", err)
	}
	if balance, _ := led.Balance(ctx, userID); balance != 5_000 {
		t.Fatalf("pickup failure must not charge the wallet, got %d", balance)
	}
	if shipments, total, _ := repo.ListByUser(ctx, userID, "", 1, 10); total != 0 || len(shipments) != 0 {
		t.Fatalf("pickup failure must not persist a shipment, got %d", total)
	}
	if len(rec.events) != 1 || rec.events[0].Kind != reconcile.KindOrphanedBooking {
		t.Fatalf("expected one orphaned booking event, got %v", rec.events)
	}
}

func TestBookCarrierFailureChargesNothing(t *testing.T) {
	carrier := &fakeCarrier{createErr: &terminal.APIError{StatusCode: 502, Message: "carrier down"}}
	svc, led, _ := newTestService(carrier, &recordingRecorder{})

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 5_000)

	_, _, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if !errors.Is(err, ErrBookingFailed) {
		t.Fatalf("expected booking failure, got %v", err)
	}
	if carrier.pickupCalls != 0 {
		t.Fatalf("pickup must not run after failed creation")
	}
	if balance, _ := led.Balance(ctx, userID); balance != 5_000 {
		t.Fatalf("balance must be untouched, got %d", balance)
	}
}

func TestCancelRefundsWallet(t *testing.T) {
	carrier := &fakeCarrier{created: terminal.ShipmentData{ShipmentID: "ext-1", TrackingID: "TRK-1"}}
	svc, led, _ := newTestService(carrier, &recordingRecorder{})

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 5_000)

	shp, _, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	cancelled, balance, err := svc.Cancel(ctx, userID, shp.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if balance != 5_000 {
		t.Fatalf("refund must restore the balance, got %d", balance)
	}
	if carrier.cancelCalls != 1 {
		t.Fatalf("expected one carrier cancel call, got %d", carrier.cancelCalls)
	}
}

func TestCancelCarrierFailureStillRefunds(t *testing.T) {
	carrier := &fakeCarrier{
		created:   terminal.ShipmentData{ShipmentID: "ext-1"},
		cancelErr: &terminal.APIError{StatusCode: 500, Message: "cancel rejected"},
	}
	rec := &recordingRecorder{}
	svc, led, _ := newTestService(carrier, rec)

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 5_000)

	shp, _, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	cancelled, balance, err := svc.Cancel(ctx, userID, shp.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || balance != 5_000 {
		t.Fatalf("local cancel and refund must proceed, status=%s balance=%d", cancelled.Status, balance)
	}
	if len(rec.events) != 1 || rec.events[0].Kind != reconcile.KindExternalCancelFailed {
		t.Fatalf("expected external cancel failure event, got %v", rec.events)
	}
}

func TestCancelRejectedInTerminalStates(t *testing.T) {
	carrier := &fakeCarrier{created: terminal.ShipmentData{ShipmentID: "ext-1"}}
	svc, led, repo := newTestService(carrier, &recordingRecorder{})

	ctx := context.Background()
	userID := uuid.NewString()
	ledger.SeedBalance(led, userID, 5_000)

	shp, _, err := svc.Book(ctx, testBookInput(userID, 3_000))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	for _, status := range []string{StatusDelivered, StatusCancelled} {
		if err := repo.UpdateStatus(ctx, shp.ID, status); err != nil {
			t.Fatalf("set status: %v", err)
		}
		if _, _, err := svc.Cancel(ctx, userID, shp.ID); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("cancel of %s shipment must fail with invalid state, got %v", status, err)
		}
		if balance, _ := led.Balance(ctx, userID); balance != 2_000 {
			t.Fatalf("rejected cancel must not move the balance, got %d", balance)
		}
	}
}

func TestCancelOtherUsersShipmentNotFound(t *testing.T) {
	carrier := &fakeCarrier{created: terminal.ShipmentData{ShipmentID: "ext-1"}}
	svc, led, _ := newTestService(carrier, &recordingRecorder{})

	ctx := context.Background()
	owner := uuid.NewString()
	ledger.SeedBalance(led, owner, 5_000)

	shp, _, err := svc.Book(ctx, testBookInput(owner, 3_000))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, _, err := svc.Cancel(ctx, uuid.NewString(), shp.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign shipment, got %v", err)
	}
}
