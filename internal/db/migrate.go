package db

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose configures its dialect and filesystem process-wide; serialize
// registrations so concurrent stores cannot interleave dialects.
var migrateMu sync.Mutex

// RegisterSchema declares the correlation row schema on a connection by
// applying all pending embedded migrations. It must complete before any
// query on that connection and is idempotent per connection: goose tracks
// applied versions in the database itself.
func RegisterSchema(conn *sql.DB, driver string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationsFS)

	dialect := "postgres"
	if driver == "sqlite3" {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	goose.SetLogger(goose.NopLogger())

	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
