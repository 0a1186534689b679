// Package testutil holds shared helpers for tests that exercise real
// infrastructure. Tests using these helpers skip themselves when the test
// database is not reachable, unless TEST_REQUIRE_DB forces a failure.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/trustedge/integrations/internal/migrate"
)

// TestingTB covers the subset of *testing.T and *testing.B these helpers use.
type TestingTB interface {
	Helper()
	Skip(args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
}

// TestDBConfig holds connection settings for the test database.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* overrides and falls back to the local
// docker-compose test database on port 55432. CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     getEnvOrDefault("TEST_DB_HOST", "localhost"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "55432"),
		User:     getEnvOrDefault("TEST_DB_USER", "integrations"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "integrations"),
		DBName:   getEnvOrDefault("TEST_DB_NAME", "integrations"),
	}
}

func (c TestDBConfig) dsn() string {
	hostPort := net.JoinHostPort(c.Host, c.Port)
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		c.User, c.Password, hostPort, c.DBName)
}

// SkipIfNoTestDB skips the test when the test database cannot be reached.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()

	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn())
	if err != nil {
		failOrSkip(t, err)
		return
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("test db close failed: %v", cerr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		failOrSkip(t, pingErr)
	}
}

func failOrSkip(t TestingTB, err error) {
	t.Helper()
	if requireDB() {
		t.Fatal("Test database not available:", err)
	}
	t.Skip("Test database not available:", err)
}

// SetupTestDB opens the test database, applies the production migrations, and
// clears any rows left by a previous run.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	db, err := sql.Open("pgx", DefaultTestDBConfig().dsn())
	if err != nil {
		t.Fatal("Failed to open test database:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		t.Fatal("Failed to connect to test database:", pingErr)
	}
	if migrateErr := migrate.Run(ctx, db); migrateErr != nil {
		t.Fatal("Failed to run migrations:", migrateErr)
	}

	CleanupTestDB(t, db)
	return db
}

// CleanupTestDB removes all rows, children before parents so foreign keys
// hold throughout.
func CleanupTestDB(t TestingTB, db *sql.DB) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tables := []string{
		"ingested_documents",
		"external_folders",
		"booking_meetings",
		"lead_events",
		"bookings",
		"clients",
		"slots",
		"leads",
		"integration_jobs",
	}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to clean up table %s: %v", table, err)
		}
	}
}

// TeardownTestDB clears test data and closes the connection.
func TeardownTestDB(t TestingTB, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	CleanupTestDB(t, db)
	if err := db.Close(); err != nil {
		t.Fatal("Failed to close test database:", err)
	}
}

// WithTestDB sets up the test database, runs fn, and tears down afterwards.
func WithTestDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	db := SetupTestDB(t)
	defer TeardownTestDB(t, db)
	fn(db)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

func requireDB() bool { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }
