package authz

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 5 * time.Second

// Repository is the pgx-backed OverrideStore. Rows are replaced, never
// deleted: a tenant that wants defaults back has never written a row.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) OverrideStore {
	return &Repository{db: db}
}

func (r *Repository) GetOverride(ctx context.Context, tenantID string, role Role) (*Override, bool, error) {
	query := `
        SELECT allowed_routes, allowed_actions, updated_at
        FROM role_permissions
        WHERE tenant_id = $1 AND role = $2
    `

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Override
	err := r.db.QueryRow(ctx, query, tenantID, string(role)).
		Scan(&o.Routes, &o.Actions, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if o.Routes == nil {
		o.Routes = []string{}
	}
	if o.Actions == nil {
		o.Actions = []string{}
	}
	return &o, true, nil
}

func (r *Repository) PutOverride(ctx context.Context, tenantID string, role Role, o Override) error {
	query := `
        INSERT INTO role_permissions (tenant_id, role, allowed_routes, allowed_actions)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (tenant_id, role) DO UPDATE
        SET allowed_routes = EXCLUDED.allowed_routes,
            allowed_actions = EXCLUDED.allowed_actions,
            updated_at = now()
    `

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	routes := o.Routes
	if routes == nil {
		routes = []string{}
	}
	actions := o.Actions
	if actions == nil {
		actions = []string{}
	}

	_, err := r.db.Exec(ctx, query, tenantID, string(role), routes, actions)
	return err
}
