package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vetscan/internal/port"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Process(ctx context.Context, content []byte) (*port.TextExtraction, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.TextExtraction), args.Error(1)
}
