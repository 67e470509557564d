package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ngenohkevin/circulation/internal/database/queries"
)

// Store is the storage surface the engines depend on: every generated query
// plus a way to run a group of them atomically.
type Store interface {
	queries.Querier
	// ExecTx runs fn inside a single read-committed transaction. The
	// transaction is rolled back when fn returns an error.
	ExecTx(ctx context.Context, fn func(q queries.Querier) error) error
}

type SQLStore struct {
	*queries.Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *SQLStore {
	return &SQLStore{
		Queries: queries.New(pool),
		pool:    pool,
	}
}

func (s *SQLStore) ExecTx(ctx context.Context, fn func(q queries.Querier) error) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(s.Queries.WithTx(tx))
	})
	if err != nil {
		return fmt.Errorf("transaction: %w", err)
	}
	return nil
}
