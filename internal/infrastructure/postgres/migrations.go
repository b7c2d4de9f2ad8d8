package postgres

import "embed"

// Migrations holds the schema migrations, applied with
// pkg/postgres.RunMigrations(dsn, Migrations, MigrationsDir).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the .sql files.
const MigrationsDir = "migrations"
