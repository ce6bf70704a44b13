package address

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	addresses map[string]Address
}

// NewMemoryRepository builds an empty in-memory address repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{addresses: make(map[string]Address)}
}

// Create stores an address record.
func (r *MemoryRepository) Create(_ context.Context, a Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[a.ID] = a
	return nil
}

// FindByIDForUser fetches an address scoped to its owner.
func (r *MemoryRepository) FindByIDForUser(_ context.Context, id, userID string) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return Address{}, ErrNotFound
	}
	return a, nil
}

// ListByUser returns the user's addresses, default first, then newest first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].IsDefault != matched[j].IsDefault {
			return matched[i].IsDefault
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// Update overwrites the mutable fields of an address.
func (r *MemoryRepository) Update(_ context.Context, a Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.addresses[a.ID]
	if !ok || existing.UserID != a.UserID {
		return ErrNotFound
	}
	a.IsDefault = existing.IsDefault
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	r.addresses[a.ID] = a
	return nil
}

// Delete removes an address owned by the user.
func (r *MemoryRepository) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	delete(r.addresses, id)
	return nil
}

// SetDefault marks one address as the user's default, clearing any other.
func (r *MemoryRepository) SetDefault(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.addresses[id]
	if !ok || target.UserID != userID {
		return ErrNotFound
	}
	for key, a := range r.addresses {
		if a.UserID == userID && a.IsDefault {
			a.IsDefault = false
			r.addresses[key] = a
		}
	}
	target.IsDefault = true
	target.UpdatedAt = time.Now().UTC()
	r.addresses[id] = target
	return nil
}
