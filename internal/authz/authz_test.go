package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOverrideStore struct {
	overrides map[string]Override // key tenant + "|" + role
}

func newFakeOverrideStore() *fakeOverrideStore {
	return &fakeOverrideStore{overrides: make(map[string]Override)}
}

func (s *fakeOverrideStore) GetOverride(_ context.Context, tenantID string, role Role) (*Override, bool, error) {
	o, ok := s.overrides[tenantID+"|"+string(role)]
	if !ok {
		return nil, false, nil
	}
	return &o, true, nil
}

func (s *fakeOverrideStore) PutOverride(_ context.Context, tenantID string, role Role, o Override) error {
	s.overrides[tenantID+"|"+string(role)] = o
	return nil
}

func TestOwnerAlwaysAllAccess(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(newFakeOverrideStore())

	for _, route := range []string{"/", "/anything", "/stocks/123", "/settings/billing"} {
		ok, err := r.CanAccessRoute(ctx, "t1", RoleOwner, route)
		require.NoError(t, err)
		assert.True(t, ok, "owner must reach %s", route)
	}

	ok, err := r.CanPerformAction(ctx, "t1", RoleOwner, "order.refund")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultsApplyWithoutOverride(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(newFakeOverrideStore())

	ok, err := r.CanAccessRoute(ctx, "t1", RoleEmploye, "/stocks")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CanAccessRoute(ctx, "t1", RoleEmploye, "/reports")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.CanAccessRoute(ctx, "t1", RoleLivreur, "/deliveries")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrefixBoundary(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(newFakeOverrideStore())

	ok, err := r.CanAccessRoute(ctx, "t1", RoleEmploye, "/stocks/123")
	require.NoError(t, err)
	assert.True(t, ok, "sub-route of a granted prefix")

	ok, err = r.CanAccessRoute(ctx, "t1", RoleEmploye, "/stocks-extra")
	require.NoError(t, err)
	assert.False(t, ok, "prefix must stop at a path-segment boundary")
}

func TestOverrideWinsVerbatim(t *testing.T) {
	ctx := context.Background()
	store := newFakeOverrideStore()
	r := NewResolver(store)

	require.NoError(t, r.UpdateOverride(ctx, "t1", RoleEmploye, Override{
		Routes:  []string{"/deliveries"},
		Actions: []string{"delivery.complete"},
	}))

	ok, err := r.CanAccessRoute(ctx, "t1", RoleEmploye, "/stocks")
	require.NoError(t, err)
	assert.False(t, ok, "default grant replaced by override")

	ok, err = r.CanAccessRoute(ctx, "t1", RoleEmploye, "/deliveries/7")
	require.NoError(t, err)
	assert.True(t, ok)

	// Other tenants keep their defaults.
	ok, err = r.CanAccessRoute(ctx, "t2", RoleEmploye, "/stocks")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEmptyOverrideDeniesAll(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(newFakeOverrideStore())

	require.NoError(t, r.UpdateOverride(ctx, "t1", RoleManager, Override{}))

	perms, err := r.EffectivePermissions(ctx, "t1", RoleManager)
	require.NoError(t, err)
	assert.Empty(t, perms.Routes)
	assert.Empty(t, perms.Actions)

	for _, route := range []string{"/", "/dashboard", "/stocks", "/staff"} {
		ok, err := r.CanAccessRoute(ctx, "t1", RoleManager, route)
		require.NoError(t, err)
		assert.False(t, ok, "route %s", route)
	}
}

func TestUpdateOverrideGuards(t *testing.T) {
	ctx := context.Background()
	r := NewResolver(newFakeOverrideStore())

	err := r.UpdateOverride(ctx, "t1", RoleOwner, Override{Routes: []string{"*"}})
	assert.ErrorIs(t, err, ErrOwnerImmutable)

	err = r.UpdateOverride(ctx, "t1", RoleEmploye, Override{Routes: []string{"/stokcs"}})
	assert.ErrorIs(t, err, ErrInvalidRoute)

	err = r.UpdateOverride(ctx, "t1", RoleEmploye, Override{Actions: []string{"stock.destroy"}})
	assert.ErrorIs(t, err, ErrInvalidAction)

	err = r.UpdateOverride(ctx, "t1", Role("ghost"), Override{})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"owner", "manager", "employe", "livreur"} {
		role, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), role)
	}
	_, err := ParseRole("admin")
	assert.ErrorIs(t, err, ErrUnknownRole)
}
