package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Ledger accounts and execution receipts",
		Up: `
		CREATE TABLE IF NOT EXISTS accounts (
			pubkey TEXT PRIMARY KEY,
			lamports NUMERIC(20, 0) NOT NULL,
			data BYTEA NOT NULL DEFAULT ''::bytea,
			owner TEXT NOT NULL,
			executable BOOLEAN NOT NULL DEFAULT FALSE,
			slot BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner);

		CREATE TABLE IF NOT EXISTS executions (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			signature TEXT NOT NULL,
			slot BIGINT NOT NULL,
			program_id TEXT NOT NULL,
			instruction TEXT NOT NULL,
			accounts TEXT[] NOT NULL,
			success BOOLEAN NOT NULL,
			error_code TEXT NOT NULL DEFAULT '',
			custom_code BIGINT,
			error_message TEXT NOT NULL DEFAULT '',
			log_messages TEXT[],
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_executions_signature ON executions(signature);
		CREATE INDEX IF NOT EXISTS idx_executions_started_at ON executions(started_at DESC);
		`,
		Down: `
		DROP TABLE IF EXISTS executions;
		DROP TABLE IF EXISTS accounts;
		`,
	},
}

// MigrationStatus reports whether one migration has been applied.
type MigrationStatus struct {
	Version     int
	Description string
	Applied     bool
}

type Migrator struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool, logger: slog.Default().With("component", "migrator")}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	return err
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// Up applies every pending migration in one transaction.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	applied := 0
	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}
		if _, err := tx.Exec(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}
	if applied > 0 {
		m.logger.Info("applied migrations", "count", applied)
	}
	return nil
}

// Down rolls back up to steps migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) error {
	current, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if current == 0 {
		return fmt.Errorf("no migrations to roll back")
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rolledBack := 0
	for i := len(migrations) - 1; i >= 0 && rolledBack < steps; i-- {
		migration := migrations[i]
		if migration.Version > current {
			continue
		}
		if _, err := tx.Exec(ctx, migration.Down); err != nil {
			return fmt.Errorf("failed to roll back migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", migration.Version); err != nil {
			return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
		}
		rolledBack++
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}
	m.logger.Info("rolled back migrations", "count", rolledBack)
	return nil
}

// Status lists every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, err := m.currentVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current version: %w", err)
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		statuses = append(statuses, MigrationStatus{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     migration.Version <= current,
		})
	}
	return statuses, nil
}

// Migrator returns the schema migrator of the repository.
func (r *PostgresRepository) Migrator() *Migrator {
	return NewMigrator(r.pool)
}
