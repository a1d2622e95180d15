package postgres

import (
	"context"
	"database/sql"

	"reviewapi/internal/model"
	"reviewapi/internal/repository"
)

// BusinessPostgres is a PostgreSQL implementation of repository.BusinessRepository.
type BusinessPostgres struct {
	db *sql.DB
}

// NewBusinessPostgres creates a new BusinessPostgres repository.
func NewBusinessPostgres(db *sql.DB) *BusinessPostgres {
	return &BusinessPostgres{db: db}
}

var _ repository.BusinessRepository = (*BusinessPostgres)(nil)

// Exists reports whether a business with the given ID exists.
func (r *BusinessPostgres) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM businesses WHERE id = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, id).Scan(&exists)
	return exists, err
}

// FindByID fetches a single business by its ID.
func (r *BusinessPostgres) FindByID(ctx context.Context, id string) (*model.Business, error) {
	const q = `SELECT id, name, created_at FROM businesses WHERE id = $1`
	var b model.Business
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
