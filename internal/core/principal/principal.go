// Package principal provides the canonical caller identity for one request.
//
// A Principal is constructed once per inbound call from transport-level
// identity data (JWT claims or an anonymous default) and is immutable for
// the duration of the request. Domain code reads it from context and never
// consults a store for role checks.
package principal

import "context"

// Well-known roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// AnonymousID is the user id assigned when no identity data is present.
const AnonymousID = "anonymous"

// Principal is the authenticated or anonymous caller identity for one request.
type Principal struct {
	// ID is the stable user identifier.
	ID string

	// DisplayName is the human-readable name.
	DisplayName string

	// Roles is the caller's role set.
	Roles []string

	// Region is the caller's sales region attribute, empty if unset.
	Region string

	// Department is the caller's department attribute, empty if unset.
	Department string

	// Tenant identifies the owning tenant.
	Tenant string

	// Locale is the caller's preferred locale.
	Locale string
}

// Anonymous returns the minimal principal used when no identity data is
// present: empty role set, default tenant.
func Anonymous() *Principal {
	return &Principal{
		ID:          AnonymousID,
		DisplayName: "Anonymous",
		Tenant:      "default",
		Locale:      "en",
	}
}

// HasRole reports whether the principal carries the named role.
// Pure set-membership test, never a store lookup.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// IsAnonymous reports whether the principal is the anonymous default.
func (p *Principal) IsAnonymous() bool {
	return p == nil || p.ID == "" || p.ID == AnonymousID
}

// HasRegion reports whether the region attribute is set.
func (p *Principal) HasRegion() bool {
	return p != nil && p.Region != ""
}

// HasDepartment reports whether the department attribute is set.
func (p *Principal) HasDepartment() bool {
	return p != nil && p.Department != ""
}

// --- Context plumbing ---

type principalKey struct{}

// WithContext stores the principal in the request context.
func WithContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal from context, or nil if absent.
func FromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return p
	}
	return nil
}

// Current returns the principal from context, falling back to the
// anonymous default. Never returns nil.
func Current(ctx context.Context) *Principal {
	if p := FromContext(ctx); p != nil {
		return p
	}
	return Anonymous()
}
