package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/identity"
	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/logging"
	"github.com/parcelflow/parcelflow/internal/paystack"
)

type fakeGateway struct {
	initializeCalls int
	verifyCalls     int
	lastInitialize  paystack.InitializeInput

	initializeErr error
	verifyStatus  string
	verifyAmount  int64
}

func (f *fakeGateway) Initialize(_ context.Context, input paystack.InitializeInput) (paystack.Authorization, error) {
	f.initializeCalls++
	f.lastInitialize = input
	if f.initializeErr != nil {
		return paystack.Authorization{}, f.initializeErr
	}
	return paystack.Authorization{
		AuthorizationURL: "https://checkout.example/" + input.Reference,
		AccessCode:       "code",
		Reference:        input.Reference,
	}, nil
}

func (f *fakeGateway) Verify(context.Context, string) (paystack.VerifyResult, error) {
	f.verifyCalls++
	status := f.verifyStatus
	if status == "" {
		status = "success"
	}
	return paystack.VerifyResult{
		Status: status,
		Amount: f.verifyAmount,
		Raw:    json.RawMessage(`{"status":"` + status + `"}`),
	}, nil
}

func newTestService(gateway *fakeGateway) (*Service, ledger.Ledger, identity.User) {
	users := identity.NewMemoryRepository()
	user := identity.User{
		ID:        uuid.NewString(),
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "ada@example.com",
		Role:      identity.RoleUser,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	led := ledger.NewInMemory()
	return NewService(led, gateway, users, "https://app.example.com", logging.Discard()), led, user
}

func TestInitializePaymentRecordsPendingEntry(t *testing.T) {
	gateway := &fakeGateway{}
	svc, led, user := newTestService(gateway)
	ctx := context.Background()

	auth, err := svc.InitializePayment(ctx, user.ID, 2_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !strings.HasPrefix(auth.Reference, "WF-") {
		t.Fatalf("unexpected reference %q", auth.Reference)
	}
	if gateway.lastInitialize.CallbackURL != "https://app.example.com/wallet/verify" {
		t.Fatalf("unexpected callback url %q", gateway.lastInitialize.CallbackURL)
	}

	entry, err := led.FindByReference(ctx, auth.Reference)
	if err != nil {
		t.Fatalf("pending entry missing: %v", err)
	}
	if entry.Status != ledger.StatusPending || entry.Amount != 2_000 {
		t.Fatalf("unexpected pending entry: %+v", entry)
	}
	if balance, _ := led.Balance(ctx, user.ID); balance != 0 {
		t.Fatalf("initialize must not credit the wallet, got %d", balance)
	}
}

func TestInitializePaymentReferencesAreUnique(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, user := newTestService(gateway)
	ctx := context.Background()

	// References must stay distinct even for back-to-back requests landing in
	// the same millisecond; the unique index rejects duplicates after the
	// gateway has already been given the reference.
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		auth, err := svc.InitializePayment(ctx, user.ID, 1_000)
		if err != nil {
			t.Fatalf("initialize %d: %v", i, err)
		}
		if seen[auth.Reference] {
			t.Fatalf("duplicate reference %q", auth.Reference)
		}
		seen[auth.Reference] = true
	}
}

func TestInitializePaymentBelowMinimumRejected(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, user := newTestService(gateway)

	if _, err := svc.InitializePayment(context.Background(), user.ID, 99); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected minimum amount error, got %v", err)
	}
	if gateway.initializeCalls != 0 {
		t.Fatalf("gateway must not be called for invalid amounts")
	}
}

func TestVerifyPaymentCreditsOnce(t *testing.T) {
	gateway := &fakeGateway{verifyAmount: 2_000}
	svc, led, user := newTestService(gateway)
	ctx := context.Background()

	auth, err := svc.InitializePayment(ctx, user.ID, 2_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	result, err := svc.VerifyPayment(ctx, user.ID, auth.Reference)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.AlreadySettled {
		t.Fatalf("first verification must not be already settled")
	}
	if result.NewBalance != 2_000 {
		t.Fatalf("expected balance 2000, got %d", result.NewBalance)
	}

	repeat, err := svc.VerifyPayment(ctx, user.ID, auth.Reference)
	if err != nil {
		t.Fatalf("repeat verify: %v", err)
	}
	if !repeat.AlreadySettled {
		t.Fatalf("repeat verification must report already settled")
	}
	if repeat.NewBalance != 2_000 {
		t.Fatalf("repeat verification must not credit again, got %d", repeat.NewBalance)
	}
	if balance, _ := led.Balance(ctx, user.ID); balance != 2_000 {
		t.Fatalf("wallet credited more than once, got %d", balance)
	}
	if gateway.verifyCalls != 1 {
		t.Fatalf("settled reference must not be re-verified upstream, got %d calls", gateway.verifyCalls)
	}
}

func TestVerifyPaymentFailureMarksEntryFailed(t *testing.T) {
	gateway := &fakeGateway{verifyStatus: "failed"}
	svc, led, user := newTestService(gateway)
	ctx := context.Background()

	auth, err := svc.InitializePayment(ctx, user.ID, 2_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.VerifyPayment(ctx, user.ID, auth.Reference); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}

	entry, err := led.FindByReference(ctx, auth.Reference)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Status != ledger.StatusFailed {
		t.Fatalf("expected failed entry, got %s", entry.Status)
	}
	if balance, _ := led.Balance(ctx, user.ID); balance != 0 {
		t.Fatalf("failed payment must not credit the wallet, got %d", balance)
	}

	// Repeat verification of a failed reference reports failure without a
	// fresh gateway call.
	if _, err := svc.VerifyPayment(ctx, user.ID, auth.Reference); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected verification failure on repeat, got %v", err)
	}
	if gateway.verifyCalls != 1 {
		t.Fatalf("failed reference must not be re-verified upstream, got %d calls", gateway.verifyCalls)
	}
}

func TestVerifyPaymentForeignReferenceNotFound(t *testing.T) {
	gateway := &fakeGateway{}
	svc, _, user := newTestService(gateway)
	ctx := context.Background()

	auth, err := svc.InitializePayment(ctx, user.ID, 2_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.VerifyPayment(ctx, uuid.NewString(), auth.Reference); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found for foreign reference, got %v", err)
	}
}
