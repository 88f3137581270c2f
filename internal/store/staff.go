package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Staff is an operator within a tenant. PINHash is only populated by
// ListPINEnabled; every other read goes through GetCredential so the hash
// stays out of ordinary staff lookups.
type Staff struct {
	ID           int64      `json:"id"`
	TenantID     string     `json:"tenant_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	PINHash      []byte     `json:"-"`
	PINChangedAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Credential is the PIN material for one staff member. A nil PINHash means
// PIN login is disabled. PINChangedAt is the session-invalidation fence: it
// moves on every set, change or removal.
type Credential struct {
	StaffID      int64
	PINHash      []byte
	PINChangedAt *time.Time
}

type StaffStore struct {
	db *pgxpool.Pool
}

func (s *StaffStore) GetByID(ctx context.Context, staffID int64) (*Staff, error) {
	query := `
        SELECT id, tenant_id, first_name, last_name, role, is_active,
               pin_changed_at, created_at, updated_at
        FROM staff
        WHERE id = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var st Staff
	err := s.db.QueryRow(ctx, query, staffID).Scan(
		&st.ID, &st.TenantID, &st.FirstName, &st.LastName, &st.Role,
		&st.IsActive, &st.PINChangedAt, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (s *StaffStore) GetCredential(ctx context.Context, staffID int64) (*Credential, error) {
	query := `SELECT pin_hash, pin_changed_at FROM staff WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	c := Credential{StaffID: staffID}
	err := s.db.QueryRow(ctx, query, staffID).Scan(&c.PINHash, &c.PINChangedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListPINEnabled returns the active, PIN-enabled staff of a tenant in stable
// id order, hashes included, for the kiosk candidate search.
func (s *StaffStore) ListPINEnabled(ctx context.Context, tenantID string) ([]Staff, error) {
	query := `
        SELECT id, tenant_id, first_name, last_name, role, is_active,
               pin_hash, pin_changed_at, created_at, updated_at
        FROM staff
        WHERE tenant_id = $1 AND is_active = true AND pin_hash IS NOT NULL
        ORDER BY id
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []Staff
	for rows.Next() {
		var st Staff
		if err := rows.Scan(
			&st.ID, &st.TenantID, &st.FirstName, &st.LastName, &st.Role,
			&st.IsActive, &st.PINHash, &st.PINChangedAt, &st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, err
		}
		staff = append(staff, st)
	}
	return staff, rows.Err()
}

// SetPIN stores a new hash and moves the pin_changed_at fence, which
// immediately invalidates every outstanding session for this staff member.
func (s *StaffStore) SetPIN(ctx context.Context, staffID int64, pinHash []byte) error {
	query := `
        UPDATE staff
        SET pin_hash = $1, pin_changed_at = now(), updated_at = now()
        WHERE id = $2
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, pinHash, staffID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RemovePIN disables PIN login. The fence still moves so sessions issued
// before the removal die on their next freshness check.
func (s *StaffStore) RemovePIN(ctx context.Context, staffID int64) error {
	query := `
        UPDATE staff
        SET pin_hash = NULL, pin_changed_at = now(), updated_at = now()
        WHERE id = $1
    `

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, staffID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
