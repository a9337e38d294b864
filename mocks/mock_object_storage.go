package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"uploadgw/internal/port"
)

// MockObjectStorage is a mock implementation of port.ObjectStorage.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, input port.PutInput) (*port.PutOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.PutOutput), args.Error(1)
}

func (m *MockObjectStorage) PresignPost(ctx context.Context, input port.PresignPostInput) (*port.PresignedPost, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.PresignedPost), args.Error(1)
}

func (m *MockObjectStorage) Ping(ctx context.Context, bucket string) error {
	args := m.Called(ctx, bucket)
	return args.Error(0)
}
