package mocks

import (
	"github.com/stretchr/testify/mock"

	"uploadgw/internal/domain"
)

// MockTokenMinter is a mock implementation of service.TokenMinter.
type MockTokenMinter struct {
	mock.Mock
}

func (m *MockTokenMinter) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTokenMinter) Mint(t *domain.CapabilityToken) (string, error) {
	args := m.Called(t)
	return args.String(0), args.Error(1)
}
