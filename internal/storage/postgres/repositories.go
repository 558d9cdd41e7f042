package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/lugondev/exchange-booth/internal/storage"
)

// Lamports are u64 and stored as NUMERIC(20,0); they travel as text.
const upsertAccountQuery = `
	INSERT INTO accounts (pubkey, lamports, data, owner, executable, slot, updated_at)
	VALUES ($1, CAST($2::text AS NUMERIC), $3, $4, $5, $6, $7)
	ON CONFLICT (pubkey) DO UPDATE SET
		lamports = EXCLUDED.lamports, data = EXCLUDED.data, owner = EXCLUDED.owner,
		executable = EXCLUDED.executable, slot = EXCLUDED.slot, updated_at = EXCLUDED.updated_at
`

const selectAccountColumns = `SELECT pubkey, lamports::text, data, owner, executable, slot, updated_at FROM accounts`

type postgresAccountRepository struct {
	db querier
}

func (r *postgresAccountRepository) Save(ctx context.Context, account *storage.AccountModel) error {
	_, err := r.db.Exec(ctx, upsertAccountQuery, accountArgs(account)...)
	return err
}

func (r *postgresAccountRepository) SaveBatch(ctx context.Context, accounts []*storage.AccountModel) error {
	return upsertAccounts(ctx, r.db, accounts)
}

func (r *postgresAccountRepository) FindByPubkey(ctx context.Context, pubkey string) (*storage.AccountModel, error) {
	return QueryOne(ctx, r.db, selectAccountColumns+` WHERE pubkey = $1`, scanAccount, pubkey)
}

func (r *postgresAccountRepository) FindByOwner(ctx context.Context, owner string, limit int, offset int) ([]*storage.AccountModel, error) {
	return QueryMany(ctx, r.db,
		selectAccountColumns+` WHERE owner = $1 ORDER BY pubkey LIMIT $2 OFFSET $3`,
		scanAccount, owner, limit, offset,
	)
}

func (r *postgresAccountRepository) List(ctx context.Context) ([]*storage.AccountModel, error) {
	return QueryMany(ctx, r.db, selectAccountColumns+` ORDER BY pubkey`, scanAccount)
}

func (r *postgresAccountRepository) Delete(ctx context.Context, pubkey string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE pubkey = $1`, pubkey)
	return err
}

func upsertAccounts(ctx context.Context, db querier, accounts []*storage.AccountModel) error {
	return execBatch(ctx, db, len(accounts), func(batch *pgx.Batch, i int) {
		batch.Queue(upsertAccountQuery, accountArgs(accounts[i])...)
	})
}

func accountArgs(a *storage.AccountModel) []any {
	data := a.Data
	if data == nil {
		data = []byte{}
	}
	return []any{
		a.Pubkey, strconv.FormatUint(a.Lamports, 10), data, a.Owner,
		a.Executable, int64(a.Slot), a.UpdatedAt,
	}
}

func scanAccount(row pgx.Row) (*storage.AccountModel, error) {
	var (
		account  storage.AccountModel
		lamports string
		slot     int64
	)
	if err := row.Scan(
		&account.Pubkey, &lamports, &account.Data, &account.Owner,
		&account.Executable, &slot, &account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	v, err := strconv.ParseUint(lamports, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lamports for %s: %w", account.Pubkey, err)
	}
	account.Lamports = v
	account.Slot = uint64(slot)
	return &account, nil
}

const selectExecutionColumns = `SELECT id, signature, slot, program_id, instruction, accounts, success,
	error_code, custom_code, error_message, log_messages, started_at, finished_at FROM executions`

type postgresExecutionRepository struct {
	db querier
}

func (r *postgresExecutionRepository) Save(ctx context.Context, exec *storage.ExecutionModel) error {
	return insertExecution(ctx, r.db, exec)
}

func (r *postgresExecutionRepository) FindByID(ctx context.Context, id string) (*storage.ExecutionModel, error) {
	return QueryOne(ctx, r.db, selectExecutionColumns+` WHERE id = $1`, scanExecution, id)
}

func (r *postgresExecutionRepository) FindBySignature(ctx context.Context, signature string) (*storage.ExecutionModel, error) {
	return QueryOne(ctx, r.db,
		selectExecutionColumns+` WHERE signature = $1 ORDER BY started_at DESC LIMIT 1`,
		scanExecution, signature,
	)
}

func (r *postgresExecutionRepository) FindRecent(ctx context.Context, limit int) ([]*storage.ExecutionModel, error) {
	return QueryMany(ctx, r.db,
		selectExecutionColumns+` ORDER BY started_at DESC, seq DESC LIMIT $1`,
		scanExecution, limit,
	)
}

func insertExecution(ctx context.Context, db querier, e *storage.ExecutionModel) error {
	var custom *int64
	if e.CustomCode != nil {
		c := int64(*e.CustomCode)
		custom = &c
	}
	accounts := e.Accounts
	if accounts == nil {
		accounts = []string{}
	}
	_, err := db.Exec(ctx, `
		INSERT INTO executions (id, signature, slot, program_id, instruction, accounts, success,
			error_code, custom_code, error_message, log_messages, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.Signature, int64(e.Slot), e.ProgramID, e.Instruction, accounts, e.Success,
		e.ErrorCode, custom, e.ErrorMessage, e.LogMessages, e.StartedAt, e.FinishedAt,
	)
	return err
}

func scanExecution(row pgx.Row) (*storage.ExecutionModel, error) {
	var (
		e      storage.ExecutionModel
		slot   int64
		custom *int64
	)
	if err := row.Scan(
		&e.ID, &e.Signature, &slot, &e.ProgramID, &e.Instruction, &e.Accounts, &e.Success,
		&e.ErrorCode, &custom, &e.ErrorMessage, &e.LogMessages, &e.StartedAt, &e.FinishedAt,
	); err != nil {
		return nil, err
	}
	e.Slot = uint64(slot)
	if custom != nil {
		c := uint32(*custom)
		e.CustomCode = &c
	}
	return &e, nil
}
