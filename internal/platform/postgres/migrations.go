package postgres

import "embed"

// MigrationsFS holds the embedded goose migration files so the server
// binary can migrate its own schema without a migrations directory on
// disk.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the path of the migration files inside MigrationsFS.
const MigrationsDir = "migrations"
