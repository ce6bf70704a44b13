package dashboard

import (
	"context"
	"time"

	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/shipment"
)

// Stats aggregates a user's shipping activity for the dashboard view.
type Stats struct {
	WalletBalance    int64
	TotalShipments   int
	ShipmentsByState map[string]int
	TotalSpent       int64
	RecentShipments  []shipment.Shipment
	MonthlyShipments []shipment.MonthlyStat
	MonthlySpend     []ledger.MonthlyTotal
}

// Service computes per-user dashboard statistics.
type Service struct {
	shipments shipment.Repository
	ledger    ledger.Ledger
}

// NewService wires the dashboard service.
func NewService(shipments shipment.Repository, lg ledger.Ledger) *Service {
	return &Service{shipments: shipments, ledger: lg}
}

// trackedStatuses are the lifecycle states broken out on the dashboard.
var trackedStatuses = []string{
	shipment.StatusDraft,
	shipment.StatusPending,
	shipment.StatusConfirmed,
	shipment.StatusInTransit,
	shipment.StatusDelivered,
	shipment.StatusCancelled,
}

// Stats gathers the user's shipment counts, spend and recent activity. Monthly
// series cover the trailing twelve months.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	stats := Stats{ShipmentsByState: make(map[string]int)}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	stats.WalletBalance = balance

	total, err := s.shipments.CountByUser(ctx, userID, "")
	if err != nil {
		return Stats{}, err
	}
	stats.TotalShipments = total

	for _, status := range trackedStatuses {
		count, err := s.shipments.CountByUser(ctx, userID, status)
		if err != nil {
			return Stats{}, err
		}
		stats.ShipmentsByState[status] = count
	}

	spent, err := s.ledger.TotalDebits(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	stats.TotalSpent = spent

	recent, _, err := s.shipments.ListByUser(ctx, userID, "", 1, 5)
	if err != nil {
		return Stats{}, err
	}
	stats.RecentShipments = recent

	since := time.Now().UTC().AddDate(-1, 0, 0)
	monthly, err := s.shipments.MonthlyStats(ctx, userID, since)
	if err != nil {
		return Stats{}, err
	}
	stats.MonthlyShipments = monthly

	spend, err := s.ledger.MonthlyDebitTotals(ctx, userID, since)
	if err != nil {
		return Stats{}, err
	}
	stats.MonthlySpend = spend

	return stats, nil
}
