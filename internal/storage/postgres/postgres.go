package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lugondev/exchange-booth/internal/config"
	"github.com/lugondev/exchange-booth/internal/storage"
)

func init() {
	storage.RegisterPostgresFactory(func(ctx context.Context, cfg *config.PostgresConfig) (storage.Repository, error) {
		return NewPostgresRepository(ctx, cfg)
	})
}

type PostgresRepository struct {
	pool          *pgxpool.Pool
	accountRepo   *postgresAccountRepository
	executionRepo *postgresExecutionRepository
}

func NewPostgresRepository(ctx context.Context, cfg *config.PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.ConnMaxLifetime) * time.Second
	}
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrator := NewMigrator(pool)
	if err := migrator.Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresRepository{
		pool:          pool,
		accountRepo:   &postgresAccountRepository{db: pool},
		executionRepo: &postgresExecutionRepository{db: pool},
	}, nil
}

func (r *PostgresRepository) Accounts() storage.AccountRepository {
	return r.accountRepo
}

func (r *PostgresRepository) Executions() storage.ExecutionRepository {
	return r.executionRepo
}

// Apply writes the change set in one database transaction.
func (r *PostgresRepository) Apply(ctx context.Context, cs *storage.ChangeSet) error {
	if cs == nil || cs.IsEmpty() {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertAccounts(ctx, tx, cs.Upserts); err != nil {
		return fmt.Errorf("failed to upsert accounts: %w", err)
	}
	if len(cs.Deletes) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM accounts WHERE pubkey = ANY($1)`, cs.Deletes); err != nil {
			return fmt.Errorf("failed to delete accounts: %w", err)
		}
	}
	if cs.Execution != nil {
		if err := insertExecution(ctx, tx, cs.Execution); err != nil {
			return fmt.Errorf("failed to record execution: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit change set: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
