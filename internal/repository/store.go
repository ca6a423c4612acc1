// Package repository holds helpers shared by the per-entity Postgres and
// SQLite repositories.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PgxPool is the subset of *pgxpool.Pool the Postgres repositories use.
// pgxmock.PgxPoolIface satisfies it as well.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SQLiteTimeLayout is fixed-width so that TEXT timestamps sort chronologically.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t for a SQLite TEXT column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(SQLiteTimeLayout)
}

// ParseTime reads a timestamp written by FormatTime.
func ParseTime(v string) (time.Time, error) {
	t, err := time.Parse(SQLiteTimeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

// ParseDecimal reads a NUMERIC rendered as text (Postgres ::text or SQLite TEXT).
func ParseDecimal(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", v, err)
	}
	return d, nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure from
// either Postgres or SQLite.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
