package appfs

import "embed"

// FS holds the SQL migrations, under "migrations".
//
//go:embed migrations/*.sql
var FS embed.FS

const MigrationsDir = "migrations"
