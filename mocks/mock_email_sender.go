package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendProcessingFailedEmail(ctx context.Context, toEmail, documentID, errMsg string) error {
	args := m.Called(ctx, toEmail, documentID, errMsg)
	return args.Error(0)
}
