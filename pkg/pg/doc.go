// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool
// with startup retries, goose schema migrations from an embedded
// filesystem, a health probe, and error classifiers for the SQLSTATE
// codes business logic cares about.
//
// Typical startup:
//
//	cfg, _ := env.ParseAs[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", slog.Default()); err != nil {
//	    return err
//	}
package pg
