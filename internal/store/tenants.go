package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TenantsStore struct {
	db *pgxpool.Pool
}

func (s *TenantsStore) Exists(ctx context.Context, tenantID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx, query, tenantID).Scan(&exists)
	return exists, err
}
