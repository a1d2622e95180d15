// Package authz decides whether a principal may administer the reviews of a
// business. It only consumes role and membership capabilities; where those
// facts live is up to the Capabilities implementation.
package authz

import (
	"context"

	"reviewapi/internal/auth"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// Capabilities answers identity questions about a principal.
type Capabilities interface {
	HasRole(ctx context.Context, p *auth.Principal, role string) (bool, error)
	Administers(ctx context.Context, p *auth.Principal, businessID string) (bool, error)
}

// Policy implements the review management rule.
type Policy struct {
	caps Capabilities
}

func NewPolicy(caps Capabilities) *Policy {
	return &Policy{caps: caps}
}

// CanManage reports whether p may moderate or delete reviews of businessID.
// System administrators may manage every business; anyone else only the
// businesses they are registered as administrators of.
func (p *Policy) CanManage(ctx context.Context, principal *auth.Principal, businessID string) (bool, error) {
	if principal == nil {
		return false, nil
	}
	for _, role := range []string{RoleAdmin, RoleSuperAdmin} {
		ok, err := p.caps.HasRole(ctx, principal, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return p.caps.Administers(ctx, principal, businessID)
}
