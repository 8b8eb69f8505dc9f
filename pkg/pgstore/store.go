package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/subkit/subkit/pkg/subscription"
)

// queryer is the subset of pgx both *pgxpool.Pool and pgx.Tx satisfy,
// so the same query methods serve pooled and transactional calls.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL implementation of subscription.Store. It also
// implements catalog.Catalog, so a single pool can back both the plan
// definitions and the subscription state.
type Store struct {
	pool *pgxpool.Pool
	db   queryer
	cfg  Config
	inTx bool
}

// Option configures a Store.
type Option func(*Store)

// WithConfig overrides the table names. Empty fields keep their
// defaults.
func WithConfig(cfg Config) Option {
	return func(s *Store) {
		s.cfg = cfg.withDefaults()
	}
}

// New creates a store over the given pool. Panics on a nil pool to fail
// fast during initialization.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	if pool == nil {
		panic("pgstore: pool is required")
	}

	s := &Store{
		pool: pool,
		db:   pool,
		cfg:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTransaction runs fn against a transaction-scoped store. Usage
// reads inside the transaction lock their rows, so concurrent
// read-modify-write cycles on the same counter serialize. A nested call
// joins the ambient transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(subscription.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		txStore := *s
		txStore.db = tx
		txStore.inTx = true
		return fn(&txStore)
	})
}
