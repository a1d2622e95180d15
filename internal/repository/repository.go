package repository

import (
	"context"
	"errors"

	"reviewapi/internal/model"
)

var (
	// ErrBusinessNotFound is returned by ReviewRepository.Create when business_id
	// does not reference an existing business.
	ErrBusinessNotFound = errors.New("business does not exist")
	// ErrInvalidStatus is returned by ReviewRepository.UpdateStatus for values
	// outside the status enumeration. The stored row is left untouched.
	ErrInvalidStatus = errors.New("invalid review status")
)

// DefaultPageSize is the number of reviews per page when the caller does not choose one.
const DefaultPageSize = 10

// ReviewRepository defines data access for reviews using SQL queries only.
// No business logic here, strictly persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. Status is always stored as pending.
	// Returns the stored review including DB-assigned timestamps.
	Create(ctx context.Context, r *model.Review) (*model.Review, error)

	// ListByBusiness returns a page of reviews for a business, newest first,
	// with the author projection populated when user_id is set.
	ListByBusiness(ctx context.Context, businessID string, pq PageQuery) (*PageResult[model.Review], error)

	// FindByBusinessAndID returns sql.ErrNoRows unless a review with reviewID
	// belongs to businessID.
	FindByBusinessAndID(ctx context.Context, businessID, reviewID string) (*model.Review, error)

	// UpdateStatus sets the moderation status of a review.
	UpdateStatus(ctx context.Context, reviewID string, status model.ReviewStatus) error

	// Delete removes a review by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, reviewID string) error
}

// BusinessRepository resolves the businesses reviews are attached to.
type BusinessRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	// FindByID returns sql.ErrNoRows when the business does not exist.
	FindByID(ctx context.Context, id string) (*model.Business, error)
}

// UserRepository resolves accounts referenced by bearer tokens.
type UserRepository interface {
	// FindByID returns sql.ErrNoRows when the account does not exist.
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
