package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

type PostgresEnrollmentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresEnrollmentRepository(db *pgxpool.Pool) *PostgresEnrollmentRepository {
	return &PostgresEnrollmentRepository{
		db: db,
	}
}

func (p *PostgresEnrollmentRepository) Exists(
	ctx context.Context,
	userID int,
	curriculumID, courseID *int) (bool, error) {

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM enrollments
			WHERE user_id = $1
				AND ($2::int IS NULL OR curriculum_id = $2)
				AND ($3::int IS NULL OR course_id = $3)
		)
	`

	var exists bool
	err := p.db.QueryRow(ctx, query, userID, curriculumID, courseID).Scan(&exists)

	return exists, err
}

func (p *PostgresEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, curriculum_id, course_id)
		VALUES ($1, $2, $3)
		RETURNING id, enrolled_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		enrollment.UserID,
		enrollment.CurriculumID,
		enrollment.CourseID,
	).Scan(&enrollment.ID, &enrollment.EnrolledAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateEnrollee
		}

		return err
	}

	return nil
}

func (p *PostgresEnrollmentRepository) Delete(
	ctx context.Context,
	userID int,
	curriculumID, courseID *int) error {

	query := `
		DELETE FROM enrollments
		WHERE user_id = $1
			AND ($2::int IS NULL OR curriculum_id = $2)
			AND ($3::int IS NULL OR course_id = $3)
	`

	_, err := p.db.Exec(ctx, query, userID, curriculumID, courseID)

	return err
}
