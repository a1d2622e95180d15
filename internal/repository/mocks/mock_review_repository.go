package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reviewapi/internal/model"
	"reviewapi/internal/repository"
)

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, r *model.Review) (*model.Review, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) ListByBusiness(ctx context.Context, businessID string, pq repository.PageQuery) (*repository.PageResult[model.Review], error) {
	args := m.Called(ctx, businessID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Review]), args.Error(1)
}

func (m *MockReviewRepository) FindByBusinessAndID(ctx context.Context, businessID, reviewID string) (*model.Review, error) {
	args := m.Called(ctx, businessID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewRepository) UpdateStatus(ctx context.Context, reviewID string, status model.ReviewStatus) error {
	args := m.Called(ctx, reviewID, status)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, reviewID string) error {
	args := m.Called(ctx, reviewID)
	return args.Error(0)
}
