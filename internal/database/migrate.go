package database

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies operator-supplied up migrations on top of the base
// schema. The base schema is always created by the gateway itself; this hook
// exists for deployments that evolve tables beyond it. The degraded backend
// has nothing to migrate.
func RunMigrations(backend Backend, migrationsPath string) error {
	sb, ok := backend.(*sqlBackend)
	if !ok {
		return nil
	}

	var (
		m   *migrate.Migrate
		err error
	)
	switch sb.kind {
	case KindEmbedded:
		driver, derr := migratesqlite.WithInstance(sb.db, &migratesqlite.Config{})
		if derr != nil {
			return fmt.Errorf("migrate driver: %w", derr)
		}
		m, err = migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "sqlite3", driver)
	case KindCloud:
		driver, derr := migratepg.WithInstance(sb.db, &migratepg.Config{})
		if derr != nil {
			return fmt.Errorf("migrate driver: %w", derr)
		}
		m, err = migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err == migrate.ErrNoChange {
		return nil
	}
	return err
}
