package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// openForMigration opens a plain database/sql handle via the pgx stdlib
// driver, the same driver libs/database/connection.go registers under
// "pgx". golang-migrate's postgres driver needs a *sql.DB, not a pgxpool.
func openForMigration(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open migration connection: %w", err)
	}
	return db, nil
}

// Migrate applies every pending migration in migrationsPath (a
// "file://..." source URL) against dsn. Authored directly against
// golang-migrate's documented Up()/Down() API: libs/database's
// ConnectWithMigrations call site names this step but its migration runner
// body was not in the filtered example set.
func Migrate(dsn, migrationsPath string) error {
	db, err := openForMigration(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("store: migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}
