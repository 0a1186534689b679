// Package data implements the PostgreSQL repositories behind the core
// interfaces. All mutations are single-row conditional updates or
// insert-with-fallback-read; no multi-row transactions are held across the
// job lifecycle.
package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the pgx stdlib driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/trustedge/integrations/config"
)

// OpenDB opens and pings a PostgreSQL connection pool using the pgx stdlib
// driver.
func OpenDB(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
