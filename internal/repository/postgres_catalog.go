package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) GetCurriculumByID(ctx context.Context, id int) (*domain.Curriculum, error) {
	query := `SELECT id, name, price, created_at FROM curriculums WHERE id = $1`

	var curriculum domain.Curriculum

	err := p.db.QueryRow(ctx, query, id).Scan(
		&curriculum.ID,
		&curriculum.Name,
		&curriculum.Price,
		&curriculum.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &curriculum, nil
}

func (p *PostgresCatalogRepository) GetCourseByID(ctx context.Context, id int) (*domain.Course, error) {
	query := `SELECT id, name, price, created_at FROM courses WHERE id = $1`

	var course domain.Course

	err := p.db.QueryRow(ctx, query, id).Scan(
		&course.ID,
		&course.Name,
		&course.Price,
		&course.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &course, nil
}
