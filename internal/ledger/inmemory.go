package ledger

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	byRef    map[string]*Entry
	entries  []*Entry
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests. The single mutex plays the role of the per-user row lock.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]int64),
		byRef:    make(map[string]*Entry),
	}
}

func (l *inMemoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *inMemoryLedger) Debit(_ context.Context, p Posting) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.post(TypeDebit, p)
}

func (l *inMemoryLedger) Credit(_ context.Context, p Posting) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.post(TypeCredit, p)
}

func (l *inMemoryLedger) post(entryType string, p Posting) (Result, error) {
	if p.Amount <= 0 {
		return Result{}, ErrInsufficientFunds
	}
	if _, exists := l.byRef[p.Reference]; exists {
		return Result{}, ErrDuplicateReference
	}

	balance := l.balances[p.UserID]
	var newBalance int64
	if entryType == TypeDebit {
		if balance < p.Amount {
			return Result{}, ErrInsufficientFunds
		}
		newBalance = balance - p.Amount
	} else {
		newBalance = balance + p.Amount
	}
	l.balances[p.UserID] = newBalance

	entry := &Entry{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		Type:          entryType,
		Amount:        p.Amount,
		Currency:      DefaultCurrency,
		Reference:     p.Reference,
		Description:   p.Description,
		Status:        StatusSuccess,
		PaymentMethod: p.PaymentMethod,
		ShipmentID:    p.ShipmentID,
		BalanceBefore: balance,
		BalanceAfter:  &newBalance,
		CreatedAt:     time.Now().UTC(),
	}
	l.byRef[p.Reference] = entry
	l.entries = append(l.entries, entry)

	return Result{Entry: *entry, NewBalance: newBalance}, nil
}

func (l *inMemoryLedger) CreatePending(_ context.Context, p Posting) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p.Amount <= 0 {
		return Entry{}, ErrInsufficientFunds
	}
	if _, exists := l.byRef[p.Reference]; exists {
		return Entry{}, ErrDuplicateReference
	}

	entry := &Entry{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		Type:          TypeCredit,
		Amount:        p.Amount,
		Currency:      DefaultCurrency,
		Reference:     p.Reference,
		Description:   p.Description,
		Status:        StatusPending,
		PaymentMethod: p.PaymentMethod,
		BalanceBefore: l.balances[p.UserID],
		CreatedAt:     time.Now().UTC(),
	}
	l.byRef[p.Reference] = entry
	l.entries = append(l.entries, entry)
	return *entry, nil
}

func (l *inMemoryLedger) SettlePending(_ context.Context, reference string, metadata json.RawMessage) (Result, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byRef[reference]
	if !ok {
		return Result{}, false, ErrNotFound
	}
	if entry.Status == StatusSuccess {
		return Result{Entry: *entry, NewBalance: l.balances[entry.UserID]}, true, nil
	}

	balance := l.balances[entry.UserID]
	newBalance := balance + entry.Amount
	l.balances[entry.UserID] = newBalance

	entry.Status = StatusSuccess
	entry.BalanceBefore = balance
	entry.BalanceAfter = &newBalance
	entry.Metadata = metadata

	return Result{Entry: *entry, NewBalance: newBalance}, false, nil
}

func (l *inMemoryLedger) FailPending(_ context.Context, reference string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byRef[reference]
	if !ok || entry.Status != StatusPending {
		if !ok {
			return ErrNotFound
		}
		return nil
	}
	entry.Status = StatusFailed
	return nil
}

func (l *inMemoryLedger) FindByReference(_ context.Context, reference string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byRef[reference]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return *entry, nil
}

func (l *inMemoryLedger) ListByUser(_ context.Context, userID string, page, limit int) ([]Entry, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list(func(e *Entry) bool { return e.UserID == userID }, page, limit)
}

func (l *inMemoryLedger) ListAll(_ context.Context, page, limit int) ([]Entry, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.list(func(*Entry) bool { return true }, page, limit)
}

func (l *inMemoryLedger) list(match func(*Entry) bool, page, limit int) ([]Entry, int, error) {
	page, limit = normalizePage(page, limit)

	var all []Entry
	for _, e := range l.entries {
		if match(e) {
			all = append(all, *e)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (l *inMemoryLedger) TotalDebits(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, e := range l.entries {
		if e.Type == TypeDebit && e.Status == StatusSuccess && (userID == "" || e.UserID == userID) {
			total += e.Amount
		}
	}
	return total, nil
}

func (l *inMemoryLedger) MonthlyDebitTotals(_ context.Context, userID string, since time.Time) ([]MonthlyTotal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byMonth := make(map[[2]int]*MonthlyTotal)
	for _, e := range l.entries {
		if e.Type != TypeDebit || e.Status != StatusSuccess || e.CreatedAt.Before(since) {
			continue
		}
		if userID != "" && e.UserID != userID {
			continue
		}
		key := [2]int{e.CreatedAt.Year(), int(e.CreatedAt.Month())}
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthlyTotal{Year: key[0], Month: key[1]}
			byMonth[key] = mt
		}
		mt.Count++
		mt.Total += e.Amount
	}

	totals := make([]MonthlyTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		totals = append(totals, *mt)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Year != totals[j].Year {
			return totals[i].Year < totals[j].Year
		}
		return totals[i].Month < totals[j].Month
	})
	return totals, nil
}
