package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Tenants interface {
		Exists(context.Context, string) (bool, error)
	}
	Staff interface {
		GetByID(context.Context, int64) (*Staff, error)
		GetCredential(context.Context, int64) (*Credential, error)
		ListPINEnabled(context.Context, string) ([]Staff, error)
		SetPIN(context.Context, int64, []byte) error
		RemovePIN(context.Context, int64) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Tenants: &TenantsStore{db},
		Staff:   &StaffStore{db},
	}
}
