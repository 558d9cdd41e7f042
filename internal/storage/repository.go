package storage

import (
	"context"
)

// AccountRepository persists ledger accounts. Lookups of absent keys return nil, nil.
type AccountRepository interface {
	Save(ctx context.Context, account *AccountModel) error
	SaveBatch(ctx context.Context, accounts []*AccountModel) error
	FindByPubkey(ctx context.Context, pubkey string) (*AccountModel, error)
	FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*AccountModel, error)
	List(ctx context.Context) ([]*AccountModel, error)
	Delete(ctx context.Context, pubkey string) error
}

// ExecutionRepository persists execution receipts.
type ExecutionRepository interface {
	Save(ctx context.Context, exec *ExecutionModel) error
	FindByID(ctx context.Context, id string) (*ExecutionModel, error)
	FindBySignature(ctx context.Context, signature string) (*ExecutionModel, error)
	FindRecent(ctx context.Context, limit int) ([]*ExecutionModel, error)
}

// Repository groups the repositories of one backend.
type Repository interface {
	Accounts() AccountRepository
	Executions() ExecutionRepository

	// Apply writes a change set atomically: either all of it or none.
	Apply(ctx context.Context, cs *ChangeSet) error

	Close() error
	Ping(ctx context.Context) error
}
