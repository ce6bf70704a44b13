package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresLedger persists wallet transactions in PostgreSQL. Every posting runs
// inside a single database transaction that locks the owning user row, which
// serializes concurrent balance mutations per user and keeps the balance update
// and the transaction insert together.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const entryColumns = `id, user_id, type, amount, currency, reference, description,
        status, payment_method, shipment_id, balance_before, balance_after, metadata, created_at`

// Balance returns the current wallet balance for the user.
func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, err
	}
	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id = $1`, uid).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %s not found", userID)
		}
		return 0, err
	}
	return balance, nil
}

// Debit atomically reduces the wallet balance and records a success debit entry.
func (l *PostgresLedger) Debit(ctx context.Context, p Posting) (Result, error) {
	return l.post(ctx, TypeDebit, p)
}

// Credit atomically increases the wallet balance and records a success credit entry.
func (l *PostgresLedger) Credit(ctx context.Context, p Posting) (Result, error) {
	return l.post(ctx, TypeCredit, p)
}

func (l *PostgresLedger) post(ctx context.Context, entryType string, p Posting) (Result, error) {
	if p.Amount <= 0 {
		return Result{}, fmt.Errorf("amount must be positive")
	}
	uid, err := uuid.Parse(p.UserID)
	if err != nil {
		return Result{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := lockBalance(ctx, tx, uid)
	if err != nil {
		return Result{}, err
	}

	var newBalance int64
	switch entryType {
	case TypeDebit:
		if balance < p.Amount {
			return Result{}, ErrInsufficientFunds
		}
		newBalance = balance - p.Amount
	case TypeCredit:
		newBalance = balance + p.Amount
	default:
		return Result{}, fmt.Errorf("unknown entry type %q", entryType)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET wallet_balance = $1 WHERE id = $2`, newBalance, uid); err != nil {
		return Result{}, err
	}

	entry := Entry{
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
	if err := insertEntry(ctx, tx, entry); err != nil {
		return Result{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}

	return Result{Entry: entry, NewBalance: newBalance}, nil
}

// CreatePending records a pending credit entry snapshotting the current balance.
// The balance itself is untouched until settlement.
func (l *PostgresLedger) CreatePending(ctx context.Context, p Posting) (Entry, error) {
	if p.Amount <= 0 {
		return Entry{}, fmt.Errorf("amount must be positive")
	}
	uid, err := uuid.Parse(p.UserID)
	if err != nil {
		return Entry{}, err
	}

	var balance int64
	if err := l.db.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id = $1`, uid).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, fmt.Errorf("user %s not found", p.UserID)
		}
		return Entry{}, err
	}

	entry := Entry{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		Type:          TypeCredit,
		Amount:        p.Amount,
		Currency:      DefaultCurrency,
		Reference:     p.Reference,
		Description:   p.Description,
		Status:        StatusPending,
		PaymentMethod: p.PaymentMethod,
		BalanceBefore: balance,
		CreatedAt:     time.Now().UTC(),
	}
	if err := insertEntry(ctx, l.db, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// SettlePending credits the wallet for a previously recorded pending entry and
// finalizes it, exactly once. Repeat calls for an already settled reference
// return the stored result with alreadySettled = true and touch nothing. The
// pre-credit balance is captured under the row lock so the finalized snapshots
// always satisfy balanceAfter = balanceBefore + amount.
func (l *PostgresLedger) SettlePending(ctx context.Context, reference string, metadata json.RawMessage) (Result, bool, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, false, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	entry, err := scanEntry(tx.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM transactions WHERE reference = $1 FOR UPDATE`, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Result{}, false, ErrNotFound
		}
		return Result{}, false, err
	}

	if entry.Status == StatusSuccess {
		balance, balErr := l.Balance(ctx, entry.UserID)
		if balErr != nil {
			return Result{}, true, balErr
		}
		return Result{Entry: entry, NewBalance: balance}, true, nil
	}

	uid, err := uuid.Parse(entry.UserID)
	if err != nil {
		return Result{}, false, err
	}
	balance, err := lockBalance(ctx, tx, uid)
	if err != nil {
		return Result{}, false, err
	}
	newBalance := balance + entry.Amount

	if _, err := tx.Exec(ctx, `UPDATE users SET wallet_balance = $1 WHERE id = $2`, newBalance, uid); err != nil {
		return Result{}, false, err
	}

	if _, err := tx.Exec(ctx, `UPDATE transactions
        SET status = $1, balance_before = $2, balance_after = $3, metadata = $4
        WHERE reference = $5`, StatusSuccess, balance, newBalance, metadata, reference); err != nil {
		return Result{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, false, err
	}

	entry.Status = StatusSuccess
	entry.BalanceBefore = balance
	entry.BalanceAfter = &newBalance
	entry.Metadata = metadata
	return Result{Entry: entry, NewBalance: newBalance}, false, nil
}

// FailPending marks a pending entry failed. Settled entries are left alone.
func (l *PostgresLedger) FailPending(ctx context.Context, reference string) error {
	cmd, err := l.db.Exec(ctx, `UPDATE transactions SET status = $1
        WHERE reference = $2 AND status = $3`, StatusFailed, reference, StatusPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByReference fetches a transaction by its unique reference.
func (l *PostgresLedger) FindByReference(ctx context.Context, reference string) (Entry, error) {
	entry, err := scanEntry(l.db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM transactions WHERE reference = $1`, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// ListByUser returns the user's transactions, newest first, with the total count.
func (l *PostgresLedger) ListByUser(ctx context.Context, userID string, page, limit int) ([]Entry, int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)

	rows, err := l.db.Query(ctx, `SELECT `+entryColumns+` FROM transactions
        WHERE user_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		uid, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := l.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, uid).Scan(&total); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListAll returns transactions across all users, newest first.
func (l *PostgresLedger) ListAll(ctx context.Context, page, limit int) ([]Entry, int, error) {
	page, limit = normalizePage(page, limit)

	rows, err := l.db.Query(ctx, `SELECT `+entryColumns+` FROM transactions
        ORDER BY created_at DESC OFFSET $1 LIMIT $2`, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := l.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// TotalDebits sums successful debits; an empty userID sums across all users.
func (l *PostgresLedger) TotalDebits(ctx context.Context, userID string) (int64, error) {
	var total int64
	if userID == "" {
		err := l.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions
            WHERE type = $1 AND status = $2`, TypeDebit, StatusSuccess).Scan(&total)
		return total, err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, err
	}
	err = l.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM transactions
        WHERE user_id = $1 AND type = $2 AND status = $3`, uid, TypeDebit, StatusSuccess).Scan(&total)
	return total, err
}

// MonthlyDebitTotals groups successful debits per calendar month since the
// given time; an empty userID aggregates across all users.
func (l *PostgresLedger) MonthlyDebitTotals(ctx context.Context, userID string, since time.Time) ([]MonthlyTotal, error) {
	query := `SELECT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int,
            COUNT(*), COALESCE(SUM(amount), 0)
        FROM transactions
        WHERE type = $1 AND status = $2 AND created_at >= $3`
	args := []any{TypeDebit, StatusSuccess, since.UTC()}
	if userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, err
		}
		query += ` AND user_id = $4`
		args = append(args, uid)
	}
	query += ` GROUP BY 1, 2 ORDER BY 1, 2`

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []MonthlyTotal
	for rows.Next() {
		var mt MonthlyTotal
		if err := rows.Scan(&mt.Year, &mt.Month, &mt.Count, &mt.Total); err != nil {
			return nil, err
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertEntry(ctx context.Context, db execer, e Entry) error {
	var shipmentID any
	if e.ShipmentID != "" {
		sid, err := uuid.Parse(e.ShipmentID)
		if err != nil {
			return err
		}
		shipmentID = sid
	}
	_, err := db.Exec(ctx, `INSERT INTO transactions (`+entryColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.MustParse(e.ID), uuid.MustParse(e.UserID), e.Type, e.Amount, e.Currency,
		e.Reference, e.Description, e.Status, e.PaymentMethod, shipmentID,
		e.BalanceBefore, e.BalanceAfter, e.Metadata, e.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateReference
		}
		return err
	}
	return nil
}

func lockBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	var balance int64
	if err := tx.QueryRow(ctx, `SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user %s not found", userID)
		}
		return 0, err
	}
	return balance, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e          Entry
		id, uid    uuid.UUID
		shipmentID *uuid.UUID
		createdAt  time.Time
	)
	if err := row.Scan(&id, &uid, &e.Type, &e.Amount, &e.Currency, &e.Reference,
		&e.Description, &e.Status, &e.PaymentMethod, &shipmentID,
		&e.BalanceBefore, &e.BalanceAfter, &e.Metadata, &createdAt); err != nil {
		return Entry{}, err
	}
	e.ID = id.String()
	e.UserID = uid.String()
	if shipmentID != nil {
		e.ShipmentID = shipmentID.String()
	}
	e.CreatedAt = createdAt.UTC()
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
