package authz

import (
	"errors"
	"time"
)

// Role is the closed set of staff roles. The wire values are kept as the
// operational app has always spelled them.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleEmploye Role = "employe"
	RoleLivreur Role = "livreur"
)

var (
	ErrUnknownRole    = errors.New("authz: unknown role")
	ErrOwnerImmutable = errors.New("authz: owner permissions are not configurable")
	ErrInvalidRoute   = errors.New("authz: route pattern not in vocabulary")
	ErrInvalidAction  = errors.New("authz: action not in vocabulary")
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOwner, RoleManager, RoleEmploye, RoleLivreur:
		return r, nil
	}
	return "", ErrUnknownRole
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Permissions is an effective route/action grant set. A literal "*" route
// means every route.
type Permissions struct {
	Routes  []string `json:"routes"`
	Actions []string `json:"actions"`
}

// Override is a tenant's stored replacement for a role's defaults. An empty
// override means "no access", which is distinct from having no override row.
type Override struct {
	Routes    []string
	Actions   []string
	UpdatedAt time.Time
}

// Built-in defaults, used for every tenant that has not customized a role.
// Owner is intentionally absent: it is always all-access and never stored.
var defaultPermissions = map[Role]Permissions{
	RoleManager: {
		Routes: []string{
			"/dashboard", "/stocks", "/orders", "/deliveries",
			"/clients", "/reports", "/staff", "/settings",
		},
		Actions: []string{
			"stock.adjust", "order.cancel", "order.refund",
			"staff.manage_pin", "report.export",
		},
	},
	RoleEmploye: {
		Routes:  []string{"/dashboard", "/stocks", "/orders"},
		Actions: []string{"stock.adjust"},
	},
	RoleLivreur: {
		Routes:  []string{"/dashboard", "/deliveries"},
		Actions: []string{"delivery.complete"},
	},
}

// Write-time vocabulary. Overrides may only reference known patterns, so a
// typo like "/stokcs" is rejected instead of silently never matching.
var (
	routeVocabulary  = map[string]bool{"*": true}
	actionVocabulary = map[string]bool{}
)

func init() {
	for _, p := range defaultPermissions {
		for _, route := range p.Routes {
			routeVocabulary[route] = true
		}
		for _, action := range p.Actions {
			actionVocabulary[action] = true
		}
	}
}
