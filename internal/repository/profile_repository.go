package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/phone-auth/internal/domain"
)

// ProfileRepository defines persistence access for profile records.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (id, name, phone)
        VALUES ($1, $2, $3)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		profile.ID,
		profile.Name,
		profile.Phone,
	).Scan(&profile.CreatedAt)
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	const query = `
        SELECT id, name, phone, created_at
        FROM profiles WHERE id=$1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Phone,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByPhone returns the oldest profile matching the phone. Duplicates are not
// prevented elsewhere, so the order makes the pick deterministic.
func (r *profileRepository) GetByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	const query = `
        SELECT id, name, phone, created_at
        FROM profiles WHERE phone=$1
        ORDER BY created_at
        LIMIT 1`

	var profile domain.Profile
	if err := r.pool.QueryRow(ctx, query, phone).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Phone,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
