package address

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the address does not exist or belongs to another user.
var ErrNotFound = errors.New("address not found")

// Repository persists user addresses.
type Repository interface {
	Create(ctx context.Context, a Address) error
	FindByIDForUser(ctx context.Context, id, userID string) (Address, error)
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	Update(ctx context.Context, a Address) error
	Delete(ctx context.Context, id, userID string) error
	SetDefault(ctx context.Context, id, userID string) error
}

// PostgresRepository stores addresses in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const addressColumns = `id, user_id, external_id, first_name, last_name, email, phone,
        line1, line2, city, state, country, zip, is_residential, is_default, created_at, updated_at`

// Create inserts an address record.
func (r *PostgresRepository) Create(ctx context.Context, a Address) error {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(a.UserID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO addresses (`+addressColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		id, userID, a.ExternalID, a.FirstName, a.LastName, a.Email, a.Phone,
		a.Line1, a.Line2, a.City, a.State, a.Country, a.Zip,
		a.IsResidential, a.IsDefault, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	return err
}

// FindByIDForUser fetches an address scoped to its owner.
func (r *PostgresRepository) FindByIDForUser(ctx context.Context, id, userID string) (Address, error) {
	addressID, uid, err := parseIDs(id, userID)
	if err != nil {
		return Address{}, ErrNotFound
	}
	return scanAddress(r.db.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, addressID, uid))
}

// ListByUser returns the user's addresses, default first, then newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := r.db.Query(ctx, `SELECT `+addressColumns+` FROM addresses
        WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// Update overwrites the mutable fields of an address.
func (r *PostgresRepository) Update(ctx context.Context, a Address) error {
	addressID, uid, err := parseIDs(a.ID, a.UserID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE addresses SET
        external_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5,
        line1 = $6, line2 = $7, city = $8, state = $9, country = $10, zip = $11,
        is_residential = $12, updated_at = $13
        WHERE id = $14 AND user_id = $15`,
		a.ExternalID, a.FirstName, a.LastName, a.Email, a.Phone,
		a.Line1, a.Line2, a.City, a.State, a.Country, a.Zip,
		a.IsResidential, time.Now().UTC(), addressID, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an address owned by the user.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	addressID, uid, err := parseIDs(id, userID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDefault marks one address as the user's default. Clearing the previous
// default and setting the new one happen in a single transaction so the user
// always ends with exactly one default.
func (r *PostgresRepository) SetDefault(ctx context.Context, id, userID string) error {
	addressID, uid, err := parseIDs(id, userID)
	if err != nil {
		return ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE, updated_at = $1
        WHERE user_id = $2 AND is_default`, time.Now().UTC(), uid); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `UPDATE addresses SET is_default = TRUE, updated_at = $1
        WHERE id = $2 AND user_id = $3`, time.Now().UTC(), addressID, uid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func parseIDs(id, userID string) (uuid.UUID, uuid.UUID, error) {
	addressID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return addressID, uid, nil
}

func scanAddress(row pgx.Row) (Address, error) {
	var (
		a                    Address
		id, userID           uuid.UUID
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &userID, &a.ExternalID, &a.FirstName, &a.LastName,
		&a.Email, &a.Phone, &a.Line1, &a.Line2, &a.City, &a.State, &a.Country,
		&a.Zip, &a.IsResidential, &a.IsDefault, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, err
	}
	a.ID = id.String()
	a.UserID = userID.String()
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updatedAt.UTC()
	return a, nil
}
