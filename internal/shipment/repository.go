package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the shipment does not exist or belongs to another user.
var ErrNotFound = errors.New("shipment not found")

// Repository persists shipments.
type Repository interface {
	Create(ctx context.Context, s Shipment) error
	FindByID(ctx context.Context, id string) (Shipment, error)
	FindByIDForUser(ctx context.Context, id, userID string) (Shipment, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListByUser(ctx context.Context, userID, status string, page, limit int) ([]Shipment, int, error)
	ListAll(ctx context.Context, status string, page, limit int) ([]Shipment, int, error)
	CountByUser(ctx context.Context, userID, status string) (int, error)
	StatusBreakdown(ctx context.Context) (map[string]int, error)
	MonthlyStats(ctx context.Context, userID string, since time.Time) ([]MonthlyStat, error)
}

// PostgresRepository stores shipments in PostgreSQL. Snapshots are embedded as
// JSONB so the stored record is a self-contained copy of the booking inputs.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const shipmentColumns = `id, user_id, external_id, tracking_number, status, pickup_address,
        delivery_address, parcel, carrier, rate, cost, is_paid, created_at, updated_at`

// Create inserts a shipment record.
func (r *PostgresRepository) Create(ctx context.Context, s Shipment) error {
	id, err := uuid.Parse(s.ID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(s.UserID)
	if err != nil {
		return err
	}

	pickup, err := json.Marshal(s.PickupAddress)
	if err != nil {
		return err
	}
	delivery, err := json.Marshal(s.DeliveryAddress)
	if err != nil {
		return err
	}
	parcel, err := json.Marshal(s.Parcel)
	if err != nil {
		return err
	}
	carrier, err := json.Marshal(s.Carrier)
	if err != nil {
		return err
	}
	rate, err := json.Marshal(s.Rate)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `INSERT INTO shipments (`+shipmentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, userID, s.ExternalID, s.TrackingNumber, s.Status, pickup, delivery,
		parcel, carrier, rate, s.Cost, s.IsPaid, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	return err
}

// FindByID fetches a shipment by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Shipment, error) {
	shipmentID, err := uuid.Parse(id)
	if err != nil {
		return Shipment{}, ErrNotFound
	}
	return scanShipment(r.db.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, shipmentID))
}

// FindByIDForUser fetches a shipment scoped to its owner.
func (r *PostgresRepository) FindByIDForUser(ctx context.Context, id, userID string) (Shipment, error) {
	shipmentID, err := uuid.Parse(id)
	if err != nil {
		return Shipment{}, ErrNotFound
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Shipment{}, ErrNotFound
	}
	return scanShipment(r.db.QueryRow(ctx,
		`SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 AND user_id = $2`, shipmentID, uid))
}

// UpdateStatus transitions a shipment's lifecycle status.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	shipmentID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE shipments SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), shipmentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's shipments, newest first, optionally filtered
// by status.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID, status string, page, limit int) ([]Shipment, int, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, ErrNotFound
	}
	return r.list(ctx, `user_id = $1`, []any{uid}, status, page, limit)
}

// ListAll returns shipments across all users, newest first, optionally
// filtered by status.
func (r *PostgresRepository) ListAll(ctx context.Context, status string, page, limit int) ([]Shipment, int, error) {
	return r.list(ctx, `TRUE`, nil, status, page, limit)
}

func (r *PostgresRepository) list(ctx context.Context, where string, args []any, status string, page, limit int) ([]Shipment, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	if status != "" {
		args = append(args, status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	countQuery := `SELECT COUNT(*) FROM shipments WHERE ` + where

	args = append(args, (page-1)*limit, limit)
	query := `SELECT ` + shipmentColumns + ` FROM shipments WHERE ` + where +
		` ORDER BY created_at DESC OFFSET $` + strconv.Itoa(len(args)-1) + ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, 0, err
		}
		shipments = append(shipments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args[:len(args)-2]...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return shipments, total, nil
}

// CountByUser counts a user's shipments, optionally filtered by status; an
// empty userID counts across all users.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID, status string) (int, error) {
	query := `SELECT COUNT(*) FROM shipments WHERE TRUE`
	var args []any
	if userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return 0, ErrNotFound
		}
		args = append(args, uid)
		query += ` AND user_id = $` + strconv.Itoa(len(args))
	}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	var total int
	err := r.db.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

// StatusBreakdown counts shipments per lifecycle status across all users.
func (r *PostgresRepository) StatusBreakdown(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM shipments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		breakdown[status] = count
	}
	return breakdown, rows.Err()
}

// MonthlyStats groups bookings per calendar month since the given time; an
// empty userID aggregates across all users.
func (r *PostgresRepository) MonthlyStats(ctx context.Context, userID string, since time.Time) ([]MonthlyStat, error) {
	query := `SELECT EXTRACT(YEAR FROM created_at)::int, EXTRACT(MONTH FROM created_at)::int,
            COUNT(*), COALESCE(SUM(cost), 0)
        FROM shipments WHERE created_at >= $1`
	args := []any{since.UTC()}
	if userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, ErrNotFound
		}
		args = append(args, uid)
		query += ` AND user_id = $2`
	}
	query += ` GROUP BY 1, 2 ORDER BY 1, 2`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MonthlyStat
	for rows.Next() {
		var ms MonthlyStat
		if err := rows.Scan(&ms.Year, &ms.Month, &ms.Count, &ms.TotalCost); err != nil {
			return nil, err
		}
		stats = append(stats, ms)
	}
	return stats, rows.Err()
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var (
		s                    Shipment
		id, userID           uuid.UUID
		pickup, delivery     []byte
		parcel, carrier, rt  []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &userID, &s.ExternalID, &s.TrackingNumber, &s.Status,
		&pickup, &delivery, &parcel, &carrier, &rt, &s.Cost, &s.IsPaid,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shipment{}, ErrNotFound
		}
		return Shipment{}, err
	}
	s.ID = id.String()
	s.UserID = userID.String()
	s.CreatedAt = createdAt.UTC()
	s.UpdatedAt = updatedAt.UTC()

	for _, pair := range []struct {
		raw []byte
		out any
	}{
		{pickup, &s.PickupAddress},
		{delivery, &s.DeliveryAddress},
		{parcel, &s.Parcel},
		{carrier, &s.Carrier},
		{rt, &s.Rate},
	} {
		if err := json.Unmarshal(pair.raw, pair.out); err != nil {
			return Shipment{}, err
		}
	}
	return s, nil
}

