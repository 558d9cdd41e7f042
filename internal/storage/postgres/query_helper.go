package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type ScanFunc[T any] func(row pgx.Row) (*T, error)

func QueryMany[T any](
	ctx context.Context,
	db querier,
	query string,
	scanFunc ScanFunc[T],
	args ...any,
) ([]*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*T
	for rows.Next() {
		item, err := scanFunc(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, rows.Err()
}

// QueryOne returns nil, nil when no row matches.
func QueryOne[T any](
	ctx context.Context,
	db querier,
	query string,
	scanFunc ScanFunc[T],
	args ...any,
) (*T, error) {
	item, err := scanFunc(db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// execBatch queues n statements and executes them in one round trip.
func execBatch(ctx context.Context, db querier, n int, queue func(batch *pgx.Batch, i int)) error {
	if n == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := 0; i < n; i++ {
		queue(batch, i)
	}

	br := db.SendBatch(ctx, batch)
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}
