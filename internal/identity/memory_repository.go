package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository builds an empty in-memory identity repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]User)}
}

// Create stores a user, enforcing email uniqueness.
func (r *MemoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	r.users[user.ID] = user
	return nil
}

// FindByID fetches a user by identifier.
func (r *MemoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

// FindByEmail fetches a user by email.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

// List returns users of the given role, newest first.
func (r *MemoryRepository) List(_ context.Context, role string, page, limit int) ([]User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var matched []User
	for _, user := range r.users {
		if user.Role == role {
			matched = append(matched, user)
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

// SetActive flips the account's active flag.
func (r *MemoryRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.IsActive = active
	r.users[id] = user
	return nil
}

// CountByRole counts users of a role, optionally only active ones.
func (r *MemoryRepository) CountByRole(_ context.Context, role string, activeOnly bool) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, user := range r.users {
		if user.Role == role && (!activeOnly || user.IsActive) {
			count++
		}
	}
	return count, nil
}
