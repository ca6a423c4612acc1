package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var migrationsFS embed.FS

// Apply runs all Postgres migrations up using the embedded migration files.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("init db driver: %w", err)
	}
	return up("sql/postgres", "pgx", dbDriver, true)
}

// ApplySQLite runs all SQLite migrations up against an open database.
// The caller keeps ownership of sqlDB.
func ApplySQLite(ctx context.Context, sqlDB *sql.DB) error {
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("init db driver: %w", err)
	}
	return up("sql/sqlite", "sqlite", dbDriver, false)
}

func up(dir, dbName string, dbDriver database.Driver, closeDB bool) error {
	srcDriver, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("init iofs: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, dbName, dbDriver)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	// m.Close also closes the database driver, which would close a caller-owned *sql.DB.
	if closeDB {
		defer m.Close()
	} else {
		defer srcDriver.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("migrate up: %w (hint: ensure every migration version has both `.up.sql` and `.down.sql`)", err)
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
