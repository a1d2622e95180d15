package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"reviewapi/internal/model"
	"reviewapi/internal/repository"
)

const (
	pgForeignKeyViolation = "23503"
	reviewsBusinessFKey   = "reviews_business_id_fkey"
)

// ReviewPostgres is a PostgreSQL implementation of repository.ReviewRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type ReviewPostgres struct {
	db *sql.DB
}

// NewReviewPostgres creates a new ReviewPostgres repository.
func NewReviewPostgres(db *sql.DB) *ReviewPostgres {
	return &ReviewPostgres{db: db}
}

var _ repository.ReviewRepository = (*ReviewPostgres)(nil)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts a new review row with status pending and returns the stored record.
func (r *ReviewPostgres) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
	images, err := encodeImages(rv.Images)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO reviews (id, business_id, user_id, author_name, comment, rating, images, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')
		RETURNING id, business_id, user_id, author_name, comment, rating, images, status, created_at, updated_at
	`
	row := r.db.QueryRowContext(ctx, q,
		rv.ID,
		rv.BusinessID,
		rv.UserID,
		rv.AuthorName,
		rv.Comment,
		rv.Rating,
		images,
	)
	out, err := scanReview(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == reviewsBusinessFKey {
			return nil, repository.ErrBusinessNotFound
		}
		return nil, err
	}
	return out, nil
}

// ListByBusiness returns reviews for one business using LIMIT/OFFSET pagination and a total count.
func (r *ReviewPostgres) ListByBusiness(ctx context.Context, businessID string, pq repository.PageQuery) (*repository.PageResult[model.Review], error) {
	const qCount = `SELECT COUNT(*) FROM reviews WHERE business_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, businessID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT r.id, r.business_id, r.user_id, r.author_name, r.comment, r.rating, r.images, r.status,
		       r.created_at, r.updated_at, u.name
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.business_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, businessID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Review, 0)
	for rows.Next() {
		var authorName sql.NullString
		rv, err := scanReview(rows, &authorName)
		if err != nil {
			return nil, err
		}
		if rv.UserID != nil && authorName.Valid {
			rv.Author = &model.Author{ID: *rv.UserID, Name: authorName.String}
		}
		items = append(items, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Review]{
		Items: items,
		Total: total,
	}, nil
}

// FindByBusinessAndID fetches a single review scoped to its business.
func (r *ReviewPostgres) FindByBusinessAndID(ctx context.Context, businessID, reviewID string) (*model.Review, error) {
	const q = `
		SELECT id, business_id, user_id, author_name, comment, rating, images, status, created_at, updated_at
		FROM reviews
		WHERE id = $1 AND business_id = $2
	`
	return scanReview(r.db.QueryRowContext(ctx, q, reviewID, businessID))
}

// UpdateStatus changes the moderation status. It returns sql.ErrNoRows when the review is gone.
func (r *ReviewPostgres) UpdateStatus(ctx context.Context, reviewID string, status model.ReviewStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", repository.ErrInvalidStatus, status)
	}
	const q = `UPDATE reviews SET status = $1, updated_at = now() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, q, string(status), reviewID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a review by ID. It does not return an error if the row does not exist.
func (r *ReviewPostgres) Delete(ctx context.Context, reviewID string) error {
	const q = `DELETE FROM reviews WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, reviewID)
	return err
}

// scanReview reads the standard review column list, followed by any extra destinations.
func scanReview(s rowScanner, extra ...any) (*model.Review, error) {
	var (
		rv     model.Review
		userID sql.NullString
		images []byte
		status string
	)
	dest := []any{
		&rv.ID,
		&rv.BusinessID,
		&userID,
		&rv.AuthorName,
		&rv.Comment,
		&rv.Rating,
		&images,
		&status,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if userID.Valid {
		rv.UserID = &userID.String
	}
	rv.Status = model.ReviewStatus(status)
	imgs, err := decodeImages(images)
	if err != nil {
		return nil, err
	}
	rv.Images = imgs
	return &rv, nil
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	if err != nil {
		return "", fmt.Errorf("encode images: %w", err)
	}
	return string(b), nil
}

func decodeImages(raw []byte) ([]string, error) {
	images := []string{}
	if len(raw) == 0 {
		return images, nil
	}
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	if images == nil {
		images = []string{}
	}
	return images, nil
}
