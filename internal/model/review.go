package model

import (
	"fmt"
	"time"
)

// ReviewStatus is the moderation state of a review. It is a closed set; use
// ParseReviewStatus to turn untrusted input into a value.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ReviewStatuses lists every valid status in display order.
var ReviewStatuses = []ReviewStatus{ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected}

// Valid reports whether s is one of the known statuses.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// ParseReviewStatus converts raw input into a ReviewStatus.
func ParseReviewStatus(raw string) (ReviewStatus, error) {
	s := ReviewStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("invalid review status %q", raw)
	}
	return s, nil
}

// Author is the minimal projection of the account that submitted a review.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Review is a user-submitted review attached to a business.
// Images holds storage-relative paths as persisted; the read path rewrites
// them to absolute URLs before they reach clients.
type Review struct {
	ID         string       `json:"id"`
	BusinessID string       `json:"business_id"`
	UserID     *string      `json:"user_id"`
	AuthorName string       `json:"author_name"`
	Comment    string       `json:"comment"`
	Rating     int          `json:"rating"`
	Images     []string     `json:"images"`
	Status     ReviewStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`

	// Author is only populated by list queries.
	Author *Author `json:"author,omitempty"`
}

// Business is the entity reviews are attached to.
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that may submit reviews or administer businesses.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
