package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"uploadgw/internal/domain"
	"uploadgw/internal/service"
)

// MockGrantService is a mock implementation of service.GrantService.
type MockGrantService struct {
	mock.Mock
}

func (m *MockGrantService) Authorize(ctx context.Context, input service.GrantInput) (*domain.PresignedUpload, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PresignedUpload), args.Error(1)
}
