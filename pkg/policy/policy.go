package policy

import (
	"context"
	"slices"
)

// User is the requester identity the pipeline filters data for. It is
// produced by the authentication layer upstream of this core.
type User struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenant_id"`
	Role        string   `json:"role"`
	Clearance   int      `json:"clearance"`
	Permissions []string `json:"permissions"`
}

// ResourceKind enumerates the resource types the policy engine decides on.
type ResourceKind string

const (
	ResourceCase     ResourceKind = "case"
	ResourceNode     ResourceKind = "node"
	ResourceEdge     ResourceKind = "edge"
	ResourceEvidence ResourceKind = "evidence"
)

// Resource identifies a piece of case data for an access decision.
type Resource struct {
	Kind        ResourceKind
	ID          string
	CaseID      string
	TenantID    string
	Sensitivity int
}

// Engine decides whether a user may access a resource. Implementations must
// be pure with respect to their inputs so that policy filtering stays
// reproducible.
type Engine interface {
	CanAccess(ctx context.Context, user User, resource Resource) (bool, error)
}

func HasPermission(user User, permission string) bool {
	return slices.Contains(user.Permissions, permission)
}

func HasAnyPermission(user User, permissions ...string) bool {
	for _, permission := range permissions {
		if HasPermission(user, permission) {
			return true
		}
	}
	return false
}

func IsAdmin(user User) bool {
	return user.Role == "admin"
}

// PermCaseRead is required to ask questions against a case.
const PermCaseRead = "case:read"

// ClearanceEngine is the default policy engine: tenant isolation, the
// case-read permission for case access, and a clearance-vs-sensitivity
// comparison for everything inside a case. Admins bypass the clearance
// check but never the tenant check.
type ClearanceEngine struct{}

// NewClearanceEngine returns the default clearance-based policy engine.
func NewClearanceEngine() *ClearanceEngine {
	return &ClearanceEngine{}
}

// CanAccess implements Engine.
func (e *ClearanceEngine) CanAccess(ctx context.Context, user User, resource Resource) (bool, error) {
	if resource.TenantID != "" && resource.TenantID != user.TenantID {
		return false, nil
	}

	if resource.Kind == ResourceCase {
		return IsAdmin(user) || HasPermission(user, PermCaseRead), nil
	}

	if IsAdmin(user) {
		return true, nil
	}

	return user.Clearance >= resource.Sensitivity, nil
}
