// Package auth normalizes the caller identity handed to us by the upstream
// auth gateway. The role is parsed exactly once here; everything downstream
// works with the Role enum, never with raw strings.
package auth

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleShipper  Role = "shipper"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

// IsBackOffice reports whether the role may use admin/staff surfaces.
func (r Role) IsBackOffice() bool {
	return r == RoleAdmin || r == RoleStaff
}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleShipper, RoleStaff, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Actor is the authenticated caller of a request.
type Actor struct {
	AccountID uuid.UUID
	Role      Role
}

type ctxKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns the actor attached to ctx by the middleware, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(Actor)
	return actor, ok
}
