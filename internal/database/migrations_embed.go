package database

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed migrations
var migrations embed.FS

// MigrationsFS returns the compiled-in migrations for the given dialect,
// rooted so that NewSQLMigrator can read them from ".".
func MigrationsFS(dialect string) (fs.FS, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
		return fs.Sub(migrations, "migrations/"+dialect)
	}
	return nil, fmt.Errorf("no migrations for dialect %q", dialect)
}
