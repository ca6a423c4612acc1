// Package dbtool backs the dbtool command: connection probes and switching
// the provider recorded in an env file.
package dbtool

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"storefront/internal/config"
	"storefront/internal/db"
)

// Result describes one successful probe.
type Result struct {
	Provider   string
	Target     string
	Latency    time.Duration
	ServerTime string
	Version    string
}

// Probe connects to dsn, runs a time/version query, and disconnects.
func Probe(ctx context.Context, provider, dsn string) (*Result, error) {
	res := &Result{Provider: provider, Target: RedactDSN(dsn)}
	start := time.Now()

	switch provider {
	case config.ProviderPostgres:
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		defer conn.Close(ctx)
		if err := conn.QueryRow(ctx, `SELECT now()::text, version()`).Scan(&res.ServerTime, &res.Version); err != nil {
			return nil, fmt.Errorf("query postgres: %w", err)
		}
		// "PostgreSQL 16.2 on x86_64-pc-linux-musl, compiled by ..." -> first clause.
		res.Version, _, _ = strings.Cut(res.Version, ",")
	case config.ProviderSQLite:
		sqlDB, err := db.OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		defer sqlDB.Close()
		var version string
		if err := sqlDB.QueryRowContext(ctx, `SELECT datetime('now'), sqlite_version()`).Scan(&res.ServerTime, &version); err != nil {
			return nil, fmt.Errorf("query sqlite: %w", err)
		}
		res.Version = "SQLite " + version
	default:
		return nil, fmt.Errorf("unknown db provider %q", provider)
	}

	res.Latency = time.Since(start)
	return res, nil
}

var keyValuePassword = regexp.MustCompile(`(?i)(password=)[^\s;&]+`)

// RedactDSN masks the password in URL or key=value connection strings.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			return u.Redacted()
		}
	}
	return keyValuePassword.ReplaceAllString(dsn, "${1}xxxxx")
}
