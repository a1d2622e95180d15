package postgres

import (
	"context"
	"database/sql"

	"reviewapi/internal/auth"
	"reviewapi/internal/authz"
)

// IdentityPostgres answers role and business membership questions from the
// user_roles and business_admins tables.
type IdentityPostgres struct {
	db *sql.DB
}

func NewIdentityPostgres(db *sql.DB) *IdentityPostgres {
	return &IdentityPostgres{db: db}
}

var _ authz.Capabilities = (*IdentityPostgres)(nil)

func (r *IdentityPostgres) HasRole(ctx context.Context, p *auth.Principal, role string) (bool, error) {
	if p == nil {
		return false, nil
	}
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM user_roles ur
			JOIN roles ro ON ro.id = ur.role_id
			WHERE ur.user_id = $1 AND ro.name = $2
		)
	`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, p.ID, role).Scan(&ok)
	return ok, err
}

func (r *IdentityPostgres) Administers(ctx context.Context, p *auth.Principal, businessID string) (bool, error) {
	if p == nil {
		return false, nil
	}
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM business_admins
			WHERE business_id = $1 AND user_id = $2
		)
	`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, businessID, p.ID).Scan(&ok)
	return ok, err
}
