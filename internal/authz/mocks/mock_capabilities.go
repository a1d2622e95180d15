package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reviewapi/internal/auth"
)

type MockCapabilities struct {
	mock.Mock
}

func (m *MockCapabilities) HasRole(ctx context.Context, p *auth.Principal, role string) (bool, error) {
	args := m.Called(ctx, p, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockCapabilities) Administers(ctx context.Context, p *auth.Principal, businessID string) (bool, error) {
	args := m.Called(ctx, p, businessID)
	return args.Bool(0), args.Error(1)
}
