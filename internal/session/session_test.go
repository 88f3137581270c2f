package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager("test-secret", "crewgate-test")
}

func TestIssueValidateRoundTrip(t *testing.T) {
	m := testManager()
	changed := time.Unix(1_700_000_000, 0)

	token, err := m.Issue(Claims{
		StaffID:      42,
		TenantID:     "3f2b8c1e-9a41-4a7e-bb6d-8f2f6f3f9a11",
		Role:         "employe",
		FirstName:    "Nadia",
		LastName:     "Benali",
		PinChangedAt: &changed,
	})
	require.NoError(t, err)

	c, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.StaffID)
	assert.Equal(t, "3f2b8c1e-9a41-4a7e-bb6d-8f2f6f3f9a11", c.TenantID)
	assert.Equal(t, "employe", c.Role)
	assert.Equal(t, "Nadia", c.FirstName)
	assert.Equal(t, "Benali", c.LastName)
	require.NotNil(t, c.PinChangedAt)
	assert.Equal(t, changed.Unix(), c.PinChangedAt.Unix())
	assert.Equal(t, TTL, c.ExpiresAt.Sub(c.IssuedAt))
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	m := testManager()
	token, err := m.Issue(Claims{StaffID: 1, TenantID: "t", Role: "manager"})
	require.NoError(t, err)

	_, err = m.Validate(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	m := testManager()
	other := NewManager("other-secret", "crewgate-test")

	token, err := other.Issue(Claims{StaffID: 1, TenantID: "t", Role: "manager"})
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := testManager()
	issuedAt := time.Now().Add(-9 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue(Claims{StaffID: 7, TenantID: "t", Role: "livreur"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFreshAgainst(t *testing.T) {
	t1 := time.Unix(1_700_000_000, 0)
	t2 := time.Unix(1_700_000_300, 0)

	c := &Claims{PinChangedAt: &t1}
	assert.True(t, c.FreshAgainst(&t1))
	assert.False(t, c.FreshAgainst(&t2), "changed pin must fence out the session")
	assert.False(t, c.FreshAgainst(nil), "removed pin must fence out the session")

	none := &Claims{}
	assert.True(t, none.FreshAgainst(nil))
	assert.False(t, none.FreshAgainst(&t1))
}
