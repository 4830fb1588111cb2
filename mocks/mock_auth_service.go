package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"vetscan/internal/service"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateAPIKey(apiKey string) (*service.AuthContext, error) {
	args := m.Called(apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthContext), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.AuthContext, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthContext), args.Error(1)
}

func (m *MockAuthService) IssueToken(userID string, scopes []string) (string, time.Time, error) {
	args := m.Called(userID, scopes)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
