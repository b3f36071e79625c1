package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/phone-auth/internal/domain"
)

// memoryProfileRepository mirrors the Postgres contract for tests and for
// running without a database.
type memoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

// NewMemoryProfileRepository returns an in-memory implementation.
func NewMemoryProfileRepository() ProfileRepository {
	return &memoryProfileRepository{profiles: make(map[string]domain.Profile)}
}

func (r *memoryProfileRepository) Create(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	r.profiles[profile.ID] = *profile
	return nil
}

func (r *memoryProfileRepository) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &profile, nil
}

func (r *memoryProfileRepository) GetByPhone(_ context.Context, phone string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]domain.Profile, 0, 1)
	for _, profile := range r.profiles {
		if profile.Phone == phone {
			matches = append(matches, profile)
		}
	}
	if len(matches) == 0 {
		return nil, pgx.ErrNoRows
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return &matches[0], nil
}
