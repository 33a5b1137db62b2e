package mocks

import (
	"context"

	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEnrollmentRepo struct {
	mock.Mock
	domain.EnrollmentRepository
}

func (m *MockEnrollmentRepo) Exists(ctx context.Context, userID int, curriculumID, courseID *int) (bool, error) {
	args := m.Called(ctx, userID, curriculumID, courseID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEnrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepo) Delete(ctx context.Context, userID int, curriculumID, courseID *int) error {
	args := m.Called(ctx, userID, curriculumID, courseID)
	return args.Error(0)
}
