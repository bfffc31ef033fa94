// Package auth models the authenticated caller and the manager checks the
// task-list operations apply.
package auth

import (
	"context"
	"fmt"
)

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Actor is the authenticated, tenant-scoped caller of an operation.
type Actor struct {
	UserID    string
	CompanyID string
	Role      string
}

// IsManager reports whether the actor may manage templates and assignments.
func (a Actor) IsManager() bool {
	return a.Role == RoleOwner || a.Role == RoleManager
}

// ForbiddenError indicates the actor's role is insufficient.
type ForbiddenError struct {
	Role string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s required", e.Role)
}

// RequireManager fails with ForbiddenError unless the actor is an owner or manager.
func RequireManager(a Actor) error {
	if !a.IsManager() {
		return ForbiddenError{Role: RoleManager}
	}
	return nil
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleMember:
		return true
	}
	return false
}

type actorKey struct{}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the actor stored by WithActor.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
