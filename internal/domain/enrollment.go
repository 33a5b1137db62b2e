package domain

import (
	"context"
	"time"
)

// Enrollment grants a user access to a curriculum or a course. Exactly one of
// CurriculumID/CourseID is set. Enrollments are created only after a payment
// reaches completed and are deleted only on a full refund.
type Enrollment struct {
	ID           int
	UserID       int
	CurriculumID *int
	CourseID     *int
	EnrolledAt   time.Time
}

type EnrollmentRepository interface {
	Exists(ctx context.Context, userID int, curriculumID, courseID *int) (bool, error)
	Create(ctx context.Context, enrollment *Enrollment) error
	Delete(ctx context.Context, userID int, curriculumID, courseID *int) error
}
