package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reviewapi/internal/auth"
	"reviewapi/internal/model"
	"reviewapi/internal/service"
)

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, businessID string, page int) (*service.ReviewPage, error) {
	args := m.Called(ctx, businessID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReviewPage), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, p *auth.Principal, in service.CreateReviewInput) (*model.Review, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) UpdateStatus(ctx context.Context, p *auth.Principal, businessID, reviewID, status string) (*service.StatusChange, error) {
	args := m.Called(ctx, p, businessID, reviewID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StatusChange), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, p *auth.Principal, businessID, reviewID string) (*service.Removal, error) {
	args := m.Called(ctx, p, businessID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Removal), args.Error(1)
}
