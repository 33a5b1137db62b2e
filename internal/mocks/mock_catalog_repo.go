package mocks

import (
	"context"

	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockCatalogRepo struct {
	mock.Mock
	domain.CatalogRepository
}

func (m *MockCatalogRepo) GetCurriculumByID(ctx context.Context, id int) (*domain.Curriculum, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Curriculum), args.Error(1)
}

func (m *MockCatalogRepo) GetCourseByID(ctx context.Context, id int) (*domain.Course, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Course), args.Error(1)
}
