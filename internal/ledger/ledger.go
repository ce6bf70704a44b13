package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when the wallet lacks available balance to
	// cover a requested debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotFound indicates no transaction exists for the given reference.
	ErrNotFound = errors.New("transaction not found")

	// ErrDuplicateReference indicates the reference is already taken; references
	// are the idempotency key shared with the payment gateway and must be unique.
	ErrDuplicateReference = errors.New("duplicate transaction reference")
)

const (
	TypeCredit = "credit"
	TypeDebit  = "debit"

	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"

	MethodWallet   = "wallet"
	MethodPaystack = "paystack"

	DefaultCurrency = "NGN"
)

// Entry is a single wallet transaction record. Entries in a terminal status are
// immutable; only a pending entry may change, exactly once, at settlement.
type Entry struct {
	ID            string
	UserID        string
	Type          string
	Amount        int64
	Currency      string
	Reference     string
	Description   string
	Status        string
	PaymentMethod string
	ShipmentID    string
	BalanceBefore int64
	BalanceAfter  *int64
	Metadata      json.RawMessage
	CreatedAt     time.Time
}

// Posting describes a balance movement to record against a user's wallet.
type Posting struct {
	UserID        string
	Amount        int64
	Reference     string
	Description   string
	PaymentMethod string
	ShipmentID    string
}

// Result captures the outcome of a finalized posting.
type Result struct {
	Entry      Entry
	NewBalance int64
}

// MonthlyTotal aggregates successful debits for one calendar month.
type MonthlyTotal struct {
	Year  int
	Month int
	Count int
	Total int64
}

// Ledger defines the contract implemented by ledger backends. Implementations
// must apply each posting and its balance update as one atomic unit, serialized
// per user, so that for every success entry balanceAfter equals the wallet
// balance at the instant the entry was finalized.
type Ledger interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Debit(ctx context.Context, p Posting) (Result, error)
	Credit(ctx context.Context, p Posting) (Result, error)
	CreatePending(ctx context.Context, p Posting) (Entry, error)
	SettlePending(ctx context.Context, reference string, metadata json.RawMessage) (Result, bool, error)
	FailPending(ctx context.Context, reference string) error
	FindByReference(ctx context.Context, reference string) (Entry, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]Entry, int, error)
	ListAll(ctx context.Context, page, limit int) ([]Entry, int, error)
	TotalDebits(ctx context.Context, userID string) (int64, error)
	MonthlyDebitTotals(ctx context.Context, userID string, since time.Time) ([]MonthlyTotal, error)
}
