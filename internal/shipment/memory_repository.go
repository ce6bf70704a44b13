package shipment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	shipments map[string]Shipment
}

// NewMemoryRepository builds an empty in-memory shipment repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{shipments: make(map[string]Shipment)}
}

// Create stores a shipment record.
func (r *MemoryRepository) Create(_ context.Context, s Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shipments[s.ID] = s
	return nil
}

// FindByID fetches a shipment by identifier.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shipments[id]
	if !ok {
		return Shipment{}, ErrNotFound
	}
	return s, nil
}

// FindByIDForUser fetches a shipment scoped to its owner.
func (r *MemoryRepository) FindByIDForUser(_ context.Context, id, userID string) (Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shipments[id]
	if !ok || s.UserID != userID {
		return Shipment{}, ErrNotFound
	}
	return s, nil
}

// UpdateStatus transitions a shipment's lifecycle status.
func (r *MemoryRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	r.shipments[id] = s
	return nil
}

// ListByUser returns the user's shipments, newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID, status string, page, limit int) ([]Shipment, int, error) {
	return r.list(func(s Shipment) bool { return s.UserID == userID }, status, page, limit)
}

// ListAll returns shipments across all users, newest first.
func (r *MemoryRepository) ListAll(_ context.Context, status string, page, limit int) ([]Shipment, int, error) {
	return r.list(func(Shipment) bool { return true }, status, page, limit)
}

func (r *MemoryRepository) list(match func(Shipment) bool, status string, page, limit int) ([]Shipment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var matched []Shipment
	for _, s := range r.shipments {
		if match(s) && (status == "" || s.Status == status) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// CountByUser counts a user's shipments; an empty userID counts all.
func (r *MemoryRepository) CountByUser(_ context.Context, userID, status string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, s := range r.shipments {
		if (userID == "" || s.UserID == userID) && (status == "" || s.Status == status) {
			count++
		}
	}
	return count, nil
}

// StatusBreakdown counts shipments per lifecycle status.
func (r *MemoryRepository) StatusBreakdown(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	breakdown := make(map[string]int)
	for _, s := range r.shipments {
		breakdown[s.Status]++
	}
	return breakdown, nil
}

// MonthlyStats groups bookings per calendar month since the given time.
func (r *MemoryRepository) MonthlyStats(_ context.Context, userID string, since time.Time) ([]MonthlyStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct{ year, month int }
	grouped := make(map[key]*MonthlyStat)
	for _, s := range r.shipments {
		if userID != "" && s.UserID != userID {
			continue
		}
		if s.CreatedAt.Before(since) {
			continue
		}
		k := key{s.CreatedAt.Year(), int(s.CreatedAt.Month())}
		stat, ok := grouped[k]
		if !ok {
			stat = &MonthlyStat{Year: k.year, Month: k.month}
			grouped[k] = stat
		}
		stat.Count++
		stat.TotalCost += s.Cost
	}

	stats := make([]MonthlyStat, 0, len(grouped))
	for _, stat := range grouped {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Year != stats[j].Year {
			return stats[i].Year < stats[j].Year
		}
		return stats[i].Month < stats[j].Month
	})
	return stats, nil
}
