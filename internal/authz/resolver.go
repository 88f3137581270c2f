// Package authz resolves which routes and actions a staff role may reach
// within a tenant. Resolution order: owner is always all-access; a stored
// tenant override wins verbatim, even when empty; otherwise the built-in
// default table for the role applies.
package authz

import (
	"context"
	"fmt"
	"strings"
)

// OverrideStore is the permission-storage collaborator.
type OverrideStore interface {
	// GetOverride returns (nil, false, nil) when the tenant has no stored
	// override for the role, which is not an error.
	GetOverride(ctx context.Context, tenantID string, role Role) (*Override, bool, error)
	PutOverride(ctx context.Context, tenantID string, role Role, o Override) error
}

type Resolver struct {
	store OverrideStore
}

func NewResolver(store OverrideStore) *Resolver {
	return &Resolver{store: store}
}

// EffectivePermissions resolves the grant set for (tenant, role).
func (r *Resolver) EffectivePermissions(ctx context.Context, tenantID string, role Role) (Permissions, error) {
	if !role.Valid() {
		return Permissions{}, ErrUnknownRole
	}
	if role == RoleOwner {
		return Permissions{Routes: []string{"*"}, Actions: []string{"*"}}, nil
	}

	o, found, err := r.store.GetOverride(ctx, tenantID, role)
	if err != nil {
		return Permissions{}, fmt.Errorf("loading permission override: %w", err)
	}
	if found {
		// Verbatim, including the empty set: an explicit empty override
		// means "no access", not "fall back to defaults".
		return Permissions{Routes: o.Routes, Actions: o.Actions}, nil
	}

	d := defaultPermissions[role]
	return Permissions{
		Routes:  append([]string(nil), d.Routes...),
		Actions: append([]string(nil), d.Actions...),
	}, nil
}

// CanAccessRoute reports whether the role may reach route in this tenant.
func (r *Resolver) CanAccessRoute(ctx context.Context, tenantID string, role Role, route string) (bool, error) {
	perms, err := r.EffectivePermissions(ctx, tenantID, role)
	if err != nil {
		return false, err
	}
	return routeAllowed(perms.Routes, route), nil
}

// CanPerformAction reports whether the role may perform the named action.
func (r *Resolver) CanPerformAction(ctx context.Context, tenantID string, role Role, action string) (bool, error) {
	perms, err := r.EffectivePermissions(ctx, tenantID, role)
	if err != nil {
		return false, err
	}
	for _, a := range perms.Actions {
		if a == "*" || a == action {
			return true, nil
		}
	}
	return false, nil
}

// routeAllowed matches a route against granted patterns. A pattern matches
// exactly or as a prefix ending on a path-segment boundary, so "/stocks"
// grants "/stocks/123" but never "/stocks-extra".
func routeAllowed(patterns []string, route string) bool {
	for _, p := range patterns {
		if p == "*" || route == p {
			return true
		}
		if strings.HasPrefix(route, p+"/") {
			return true
		}
	}
	return false
}

// UpdateOverride replaces a tenant's stored permissions for a role. The
// caller has already authenticated the actor as the tenant owner; this layer
// still refuses to touch the owner role and validates the vocabulary.
func (r *Resolver) UpdateOverride(ctx context.Context, tenantID string, role Role, o Override) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if role == RoleOwner {
		return ErrOwnerImmutable
	}
	for _, route := range o.Routes {
		if !routeVocabulary[route] {
			return fmt.Errorf("%w: %q", ErrInvalidRoute, route)
		}
	}
	for _, action := range o.Actions {
		if !actionVocabulary[action] {
			return fmt.Errorf("%w: %q", ErrInvalidAction, action)
		}
	}
	if err := r.store.PutOverride(ctx, tenantID, role, o); err != nil {
		return fmt.Errorf("storing permission override: %w", err)
	}
	return nil
}
