package admin

import (
	"context"

	"github.com/parcelflow/parcelflow/internal/identity"
	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/shipment"
)

// PlatformStats aggregates activity across all users.
type PlatformStats struct {
	TotalUsers       int
	ActiveUsers      int
	TotalShipments   int
	ShipmentsByState map[string]int
	TotalRevenue     int64
}

// Service exposes the admin surface: platform statistics and cross-user
// listings.
type Service struct {
	users     identity.Repository
	identity  *identity.Service
	shipments shipment.Repository
	ledger    ledger.Ledger
}

// NewService wires the admin service.
func NewService(users identity.Repository, ids *identity.Service, shipments shipment.Repository, lg ledger.Ledger) *Service {
	return &Service{users: users, identity: ids, shipments: shipments, ledger: lg}
}

// Stats computes platform-wide totals. Revenue is the sum of successful wallet
// debits, which equals the cost of all paid bookings minus nothing; refunds
// are credits and do not reduce it.
func (s *Service) Stats(ctx context.Context) (PlatformStats, error) {
	stats := PlatformStats{}

	total, err := s.users.CountByRole(ctx, identity.RoleUser, false)
	if err != nil {
		return PlatformStats{}, err
	}
	stats.TotalUsers = total

	active, err := s.users.CountByRole(ctx, identity.RoleUser, true)
	if err != nil {
		return PlatformStats{}, err
	}
	stats.ActiveUsers = active

	breakdown, err := s.shipments.StatusBreakdown(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	stats.ShipmentsByState = breakdown
	for _, count := range breakdown {
		stats.TotalShipments += count
	}

	revenue, err := s.ledger.TotalDebits(ctx, "")
	if err != nil {
		return PlatformStats{}, err
	}
	stats.TotalRevenue = revenue

	return stats, nil
}

// Users lists customer accounts, newest first.
func (s *Service) Users(ctx context.Context, page, limit int) ([]identity.User, int, error) {
	return s.users.List(ctx, identity.RoleUser, page, limit)
}

// User fetches a single account.
func (s *Service) User(ctx context.Context, id string) (identity.User, error) {
	return s.users.FindByID(ctx, id)
}

// ToggleUserStatus flips an account between active and deactivated.
func (s *Service) ToggleUserStatus(ctx context.Context, id string) (identity.User, error) {
	return s.identity.ToggleActive(ctx, id)
}

// Shipments lists shipments across all users with optional status filter.
func (s *Service) Shipments(ctx context.Context, status string, page, limit int) ([]shipment.Shipment, int, error) {
	return s.shipments.ListAll(ctx, status, page, limit)
}

// Transactions lists wallet transactions across all users.
func (s *Service) Transactions(ctx context.Context, page, limit int) ([]ledger.Entry, int, error) {
	return s.ledger.ListAll(ctx, page, limit)
}
