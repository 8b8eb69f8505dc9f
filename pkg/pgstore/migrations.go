package pgstore

import "embed"

// Migrations holds the schema for the default table names, applied with
// pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", log).
//
//go:embed migrations/*.sql
var Migrations embed.FS
