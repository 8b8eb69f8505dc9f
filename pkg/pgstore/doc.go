// Package pgstore persists subscriptions, usage counters, and the plan
// catalog in PostgreSQL via pgx/v5. A single Store implements both
// subscription.Store and catalog.Catalog.
//
// Mutating operations run inside transactions started through
// RunInTransaction; usage reads within a transaction take row locks so
// the ledger's read-modify-write cycle serializes under concurrency.
// Subscriptions are soft-deleted to preserve billing history, while
// their usage counters are removed outright.
//
// Setup:
//
//	pool, err := pg.Connect(ctx, pgCfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, pgCfg, pgstore.Migrations, "migrations", slog.Default()); err != nil {
//	    return err
//	}
//
//	store := pgstore.New(pool)
//	svc := subscription.NewService(store, store)
//
// With a read-heavy catalog, wrap the store in the Redis cache:
//
//	svc := subscription.NewService(store,
//	    catalog.NewCachedCatalog(redisClient, store, 5*time.Minute))
package pgstore
