package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"uploadgw/internal/domain"
)

// MockInlineService is a mock implementation of service.InlineService.
type MockInlineService struct {
	mock.Mock
}

func (m *MockInlineService) Process(ctx context.Context, req domain.UploadRequest) (*domain.UploadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UploadResult), args.Error(1)
}
