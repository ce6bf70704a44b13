package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parcelflow/parcelflow/internal/identity"
	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/paystack"
)

// MinimumFunding is the smallest accepted top-up in whole NGN.
const MinimumFunding int64 = 100

var (
	// ErrAmountTooSmall occurs when a funding request is below the minimum.
	ErrAmountTooSmall = fmt.Errorf("minimum funding amount is %d NGN", MinimumFunding)

	// ErrVerificationFailed occurs when the gateway reports the payment as not
	// successful.
	ErrVerificationFailed = errors.New("payment was not successful")
)

// FundingResult is the outcome of a payment verification.
type FundingResult struct {
	Reference      string
	Amount         int64
	NewBalance     int64
	AlreadySettled bool
}

// Service orchestrates wallet funding through the payment gateway and exposes
// balance and transaction history.
type Service struct {
	ledger      ledger.Ledger
	gateway     paystack.Gateway
	users       identity.Repository
	callbackURL string
	logger      *slog.Logger
}

// NewService wires the funding orchestrator. frontendURL is the base URL the
// gateway redirects back to after checkout.
func NewService(lg ledger.Ledger, gateway paystack.Gateway, users identity.Repository, frontendURL string, logger *slog.Logger) *Service {
	return &Service{
		ledger:      lg,
		gateway:     gateway,
		users:       users,
		callbackURL: strings.TrimSuffix(frontendURL, "/") + "/wallet/verify",
		logger:      logger,
	}
}

// InitializePayment starts a hosted gateway payment and records a pending
// credit under a fresh reference. The pending entry is persisted before the
// authorization is returned so verification always finds it.
func (s *Service) InitializePayment(ctx context.Context, userID string, amount int64) (paystack.Authorization, error) {
	if amount < MinimumFunding {
		return paystack.Authorization{}, ErrAmountTooSmall
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return paystack.Authorization{}, err
	}

	reference := fmt.Sprintf("WF-%d-%s", time.Now().UnixMilli(), uuid.NewString())
	auth, err := s.gateway.Initialize(ctx, paystack.InitializeInput{
		Email:       user.Email,
		Amount:      amount,
		Reference:   reference,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		return paystack.Authorization{}, err
	}

	if _, err := s.ledger.CreatePending(ctx, ledger.Posting{
		UserID:        userID,
		Amount:        amount,
		Reference:     reference,
		Description:   "Wallet funding via Paystack",
		PaymentMethod: ledger.MethodPaystack,
	}); err != nil {
		return paystack.Authorization{}, err
	}

	s.logger.Info("wallet funding initialized",
		"user_id", userID, "reference", reference, "amount", amount)
	return auth, nil
}

// VerifyPayment settles a pending funding entry against the gateway's record.
// The gateway is the source of truth; repeat calls for an already-settled
// reference return the recorded outcome without crediting again.
func (s *Service) VerifyPayment(ctx context.Context, userID, reference string) (FundingResult, error) {
	entry, err := s.ledger.FindByReference(ctx, reference)
	if err != nil {
		return FundingResult{}, err
	}
	if entry.UserID != userID {
		return FundingResult{}, ledger.ErrNotFound
	}

	if entry.Status == ledger.StatusSuccess {
		balance, err := s.ledger.Balance(ctx, userID)
		if err != nil {
			return FundingResult{}, err
		}
		return FundingResult{
			Reference:      reference,
			Amount:         entry.Amount,
			NewBalance:     balance,
			AlreadySettled: true,
		}, nil
	}
	if entry.Status == ledger.StatusFailed {
		return FundingResult{}, ErrVerificationFailed
	}

	record, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return FundingResult{}, err
	}
	if !record.Succeeded() {
		if err := s.ledger.FailPending(ctx, reference); err != nil {
			return FundingResult{}, err
		}
		s.logger.Info("wallet funding failed verification",
			"user_id", userID, "reference", reference, "gateway_status", record.Status)
		return FundingResult{}, ErrVerificationFailed
	}

	res, alreadySettled, err := s.ledger.SettlePending(ctx, reference, record.Raw)
	if err != nil {
		return FundingResult{}, err
	}
	if !alreadySettled {
		s.logger.Info("wallet funded",
			"user_id", userID, "reference", reference, "amount", res.Entry.Amount,
			"balance", res.NewBalance)
	}
	return FundingResult{
		Reference:      reference,
		Amount:         res.Entry.Amount,
		NewBalance:     res.NewBalance,
		AlreadySettled: alreadySettled,
	}, nil
}

// Balance returns the user's current wallet balance.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// Transactions returns the user's wallet history, newest first.
func (s *Service) Transactions(ctx context.Context, userID string, page, limit int) ([]ledger.Entry, int, error) {
	return s.ledger.ListByUser(ctx, userID, page, limit)
}
