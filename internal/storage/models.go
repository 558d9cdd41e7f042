package storage

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/exchange-booth/pkg/types"
)

// AccountModel is the persisted form of one ledger account.
type AccountModel struct {
	Pubkey     string    `json:"pubkey" db:"pubkey"`
	Lamports   uint64    `json:"lamports" db:"lamports"`
	Data       []byte    `json:"data" db:"data"`
	Owner      string    `json:"owner" db:"owner"`
	Executable bool      `json:"executable" db:"executable"`
	Slot       uint64    `json:"slot" db:"slot"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ExecutionModel is the receipt of one executed instruction.
type ExecutionModel struct {
	ID           string    `json:"id" db:"id"`
	Signature    string    `json:"signature" db:"signature"`
	Slot         uint64    `json:"slot" db:"slot"`
	ProgramID    string    `json:"program_id" db:"program_id"`
	Instruction  string    `json:"instruction" db:"instruction"`
	Accounts     []string  `json:"accounts" db:"accounts"`
	Success      bool      `json:"success" db:"success"`
	ErrorCode    string    `json:"error_code,omitempty" db:"error_code"`
	CustomCode   *uint32   `json:"custom_code,omitempty" db:"custom_code"`
	ErrorMessage string    `json:"error_message,omitempty" db:"error_message"`
	LogMessages  []string  `json:"log_messages,omitempty" db:"log_messages"`
	StartedAt    time.Time `json:"started_at" db:"started_at"`
	FinishedAt   time.Time `json:"finished_at" db:"finished_at"`
}

// ChangeSet is everything one committed instruction writes.
type ChangeSet struct {
	Slot      uint64
	Upserts   []*AccountModel
	Deletes   []string
	Execution *ExecutionModel
}

// IsEmpty reports whether the change set carries no writes.
func (cs *ChangeSet) IsEmpty() bool {
	return len(cs.Upserts) == 0 && len(cs.Deletes) == 0 && cs.Execution == nil
}

// AccountToModel converts a ledger account into its persisted form.
func AccountToModel(pubkey types.Pubkey, account *types.Account, slot uint64) *AccountModel {
	return &AccountModel{
		Pubkey:     pubkey.String(),
		Lamports:   account.Lamports,
		Data:       account.Data,
		Owner:      account.Owner.String(),
		Executable: account.Executable,
		Slot:       slot,
		UpdatedAt:  time.Now().UTC(),
	}
}

// ModelToAccount converts a persisted account back into ledger form.
func ModelToAccount(m *AccountModel) (types.Pubkey, *types.Account, error) {
	key, err := solana.PublicKeyFromBase58(m.Pubkey)
	if err != nil {
		return types.Pubkey{}, nil, fmt.Errorf("invalid account pubkey %q: %w", m.Pubkey, err)
	}
	owner, err := solana.PublicKeyFromBase58(m.Owner)
	if err != nil {
		return types.Pubkey{}, nil, fmt.Errorf("invalid owner of %s: %w", m.Pubkey, err)
	}
	return key, &types.Account{
		Lamports:   m.Lamports,
		Data:       m.Data,
		Owner:      owner,
		Executable: m.Executable,
	}, nil
}
