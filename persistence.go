package reviews

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB opens a bun handle for driver. In memory sqlite databases are
// pinned to a single connection so every query sees the same schema.
func OpenDB(driver, dsn string) (*bun.DB, error) {
	switch normalizeDriver(driver) {
	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open sqlite database")
		}
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			sqldb.SetMaxOpenConns(1)
		}
		db := bun.NewDB(sqldb, sqlitedialect.New())
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			_ = db.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "enable sqlite foreign keys")
		}
		return db, nil
	case DriverPostgres:
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open postgres database")
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported persistence driver %q", driver), goerrors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER")
	}
}

// Migrate applies the embedded migrations for driver
func Migrate(ctx context.Context, db *bun.DB, driver string) error {
	var dialect, dir string
	switch normalizeDriver(driver) {
	case DriverSQLite:
		dialect, dir = "sqlite3", "data/sql/migrations/sqlite"
	case DriverPostgres:
		dialect, dir = "postgres", "data/sql/migrations/postgres"
	default:
		return goerrors.New(fmt.Sprintf("unsupported persistence driver %q", driver), goerrors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER")
	}

	goose.SetBaseFS(GetMigrationsFS())
	if err := goose.SetDialect(dialect); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "set migration dialect")
	}

	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "run migrations")
	}

	return nil
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pgx":
		return DriverPostgres
	}
	return driver
}
