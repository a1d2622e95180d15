package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reviewapi/internal/auth"
	"reviewapi/internal/media"
)

type MockMediaStore struct {
	mock.Mock
}

// FileUpload carries a func, so calls are matched by file name.
func (m *MockMediaStore) Validate(f media.FileUpload) error {
	args := m.Called(f.Filename)
	return args.Error(0)
}

func (m *MockMediaStore) Store(ctx context.Context, f media.FileUpload) (string, error) {
	args := m.Called(ctx, f.Filename)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) AbsoluteURL(ctx context.Context, p string) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, p string) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) CanManage(ctx context.Context, p *auth.Principal, businessID string) (bool, error) {
	args := m.Called(ctx, p, businessID)
	return args.Bool(0), args.Error(1)
}
