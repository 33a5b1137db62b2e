package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

type PostgresProfileRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProfileRepository(db *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{
		db: db,
	}
}

func (p *PostgresProfileRepository) GetByID(ctx context.Context, id int) (*domain.Profile, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, version
		FROM profiles
		WHERE id = $1
	`

	return p.scanProfile(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at, version
		FROM profiles
		WHERE email = $1
	`

	return p.scanProfile(p.db.QueryRow(ctx, query, email))
}

func (p *PostgresProfileRepository) scanProfile(row pgx.Row) (*domain.Profile, error) {
	var profile domain.Profile

	err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.Password.Hash,
		&profile.Role,
		&profile.CreatedAt,
		&profile.Version,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &profile, nil
}
