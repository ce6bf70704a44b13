package address

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/logging"
	"github.com/parcelflow/parcelflow/internal/reconcile"
	"github.com/parcelflow/parcelflow/internal/terminal"
)

type fakeCarrier struct {
	createErr   error
	updateErr   error
	createCalls int
	updateCalls int
}

func (f *fakeCarrier) Countries(context.Context) (json.RawMessage, error) { return nil, nil }
func (f *fakeCarrier) States(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCarrier) Cities(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCarrier) CreateAddress(context.Context, terminal.Address) (terminal.CreatedAddress, error) {
	f.createCalls++
	if f.createErr != nil {
		return terminal.CreatedAddress{}, f.createErr
	}
	return terminal.CreatedAddress{AddressID: "ext-addr-1"}, nil
}
func (f *fakeCarrier) UpdateAddress(context.Context, string, terminal.Address) error {
	f.updateCalls++
	return f.updateErr
}
func (f *fakeCarrier) QuotesForShipment(context.Context, terminal.ShipmentRequest) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCarrier) CreateQuickShipment(context.Context, terminal.ShipmentRequest) (terminal.ShipmentData, error) {
	return terminal.ShipmentData{}, nil
}
func (f *fakeCarrier) ArrangePickup(context.Context, terminal.PickupRequest) error { return nil }
func (f *fakeCarrier) TrackShipment(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}
func (f *fakeCarrier) CancelShipment(context.Context, string) error        { return nil }
func (f *fakeCarrier) Carriers(context.Context) (json.RawMessage, error)   { return nil, nil }
func (f *fakeCarrier) Carrier(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}

type recordingRecorder struct {
	events []reconcile.Event
}

func (r *recordingRecorder) Record(_ context.Context, e reconcile.Event) {
	r.events = append(r.events, e)
}

func testInput() Input {
	return Input{
		FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "+2348000000000",
		Line1: "1 Marina Rd", City: "Lagos", State: "Lagos", Country: "NG",
	}
}

func TestCreateMirrorsToCarrier(t *testing.T) {
	carrier := &fakeCarrier{}
	svc := NewService(NewMemoryRepository(), carrier, &recordingRecorder{}, logging.Discard())

	a, err := svc.Create(context.Background(), uuid.NewString(), testInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ExternalID != "ext-addr-1" {
		t.Fatalf("expected mirrored external id, got %q", a.ExternalID)
	}
	if !a.IsResidential {
		t.Fatalf("residential must default to true")
	}
}

func TestCreateToleratesMirrorFailure(t *testing.T) {
	carrier := &fakeCarrier{createErr: &terminal.APIError{StatusCode: 500, Message: "down"}}
	rec := &recordingRecorder{}
	repo := NewMemoryRepository()
	svc := NewService(repo, carrier, rec, logging.Discard())

	ctx := context.Background()
	userID := uuid.NewString()
	a, err := svc.Create(ctx, userID, testInput())
	if err != nil {
		t.Fatalf("create must succeed despite mirror failure: %v", err)
	}
	if a.ExternalID != "" {
		t.Fatalf("external id must stay empty on mirror failure, got %q", a.ExternalID)
	}
	if _, err := repo.FindByIDForUser(ctx, a.ID, userID); err != nil {
		t.Fatalf("local record missing: %v", err)
	}
	if len(rec.events) != 1 || rec.events[0].Kind != reconcile.KindAddressMirrorFailed {
		t.Fatalf("expected mirror failure event, got %v", rec.events)
	}
}

func TestSetDefaultIsExclusive(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeCarrier{}, &recordingRecorder{}, logging.Discard())
	ctx := context.Background()
	userID := uuid.NewString()

	first, err := svc.Create(ctx, userID, testInput())
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.SetDefault(ctx, userID, first.ID); err != nil {
		t.Fatalf("set first default: %v", err)
	}

	second, err := svc.Create(ctx, userID, testInput())
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if _, err := svc.SetDefault(ctx, userID, second.ID); err != nil {
		t.Fatalf("set second default: %v", err)
	}

	addresses, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			if a.ID != second.ID {
				t.Fatalf("wrong default address %s", a.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}
}

func TestUpdatePushesToMirrorWhenLinked(t *testing.T) {
	carrier := &fakeCarrier{}
	svc := NewService(NewMemoryRepository(), carrier, &recordingRecorder{}, logging.Discard())
	ctx := context.Background()
	userID := uuid.NewString()

	a, err := svc.Create(ctx, userID, testInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := testInput()
	in.City = "Abuja"
	updated, err := svc.Update(ctx, userID, a.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != "Abuja" {
		t.Fatalf("expected updated city, got %q", updated.City)
	}
	if carrier.updateCalls != 1 {
		t.Fatalf("expected one mirror update, got %d", carrier.updateCalls)
	}
}

func TestDeleteScopedToOwner(t *testing.T) {
	svc := NewService(NewMemoryRepository(), &fakeCarrier{}, &recordingRecorder{}, logging.Discard())
	ctx := context.Background()
	owner := uuid.NewString()

	a, err := svc.Create(ctx, owner, testInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, uuid.NewString(), a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete must fail with not found, got %v", err)
	}
	if err := svc.Delete(ctx, owner, a.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}
