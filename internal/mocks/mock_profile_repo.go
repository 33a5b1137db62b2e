package mocks

import (
	"context"

	"github.com/robomakers/academy-payment-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockProfileRepo struct {
	mock.Mock
	domain.ProfileRepository
}

func (m *MockProfileRepo) GetByID(ctx context.Context, id int) (*domain.Profile, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	args := m.Called(ctx, email)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Profile), args.Error(1)
}
