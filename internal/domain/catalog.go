package domain

import (
	"context"
	"time"
)

// Curriculum is a multi-course program sold as a single enrollment.
type Curriculum struct {
	ID        int
	Name      string
	Price     int64
	CreatedAt time.Time
}

type Course struct {
	ID        int
	Name      string
	Price     int64
	CreatedAt time.Time
}

type CatalogRepository interface {
	GetCurriculumByID(ctx context.Context, id int) (*Curriculum, error)
	GetCourseByID(ctx context.Context, id int) (*Course, error)
}
