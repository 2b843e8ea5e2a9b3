package postgresql

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/relaydb/ormengine/test"
	"github.com/relaydb/ormengine/types"
)

func init() {
	host := test.GetEnvOrDefault("POSTGRES_TEST_HOST", "localhost")
	user := test.GetEnvOrDefault("POSTGRES_TEST_USER", "testuser")
	password := test.GetEnvOrDefault("POSTGRES_TEST_PASSWORD", "testpass")
	database := test.GetEnvOrDefault("POSTGRES_TEST_DATABASE", "testdb")

	uri := fmt.Sprintf("postgresql://%s:%s@%s:5432/%s?sslmode=disable",
		user, password, host, database)

	test.RegisterTestDatabaseUri("postgresql", uri)
}

// skipIfPostgreSQLNotAvailable skips the current test unless POSTGRES_HOST is set.
func skipIfPostgreSQLNotAvailable(t *testing.T) {
	t.Helper()
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Skip("POSTGRES_HOST not set, skipping PostgreSQL driver tests")
	}
}

// getTestConfig returns the connection config used by tests gated on
// skipIfPostgreSQLNotAvailable.
func getTestConfig() types.Config {
	return types.Config{
		Type:     "postgresql",
		Host:     test.GetEnvOrDefault("POSTGRES_HOST", "localhost"),
		Port:     5432,
		Database: test.GetEnvOrDefault("POSTGRES_TEST_DATABASE", "testdb"),
		User:     test.GetEnvOrDefault("POSTGRES_TEST_USER", "testuser"),
		Password: test.GetEnvOrDefault("POSTGRES_TEST_PASSWORD", "testpass"),
	}
}

// cleanupTables removes all non-system tables from the database
func cleanupTables(t *testing.T, db *PostgreSQLDB) {
	ctx := context.Background()

	// Get all tables in public schema
	rows, err := db.GetDB().QueryContext(ctx, `
		SELECT tablename 
		FROM pg_tables 
		WHERE schemaname = 'public'
	`)
	if err != nil {
		t.Logf("Failed to get tables: %v", err)
		return
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			t.Logf("Failed to scan table name: %v", err)
			continue
		}
		tables = append(tables, table)
	}

	// Drop all tables with CASCADE
	for _, table := range tables {
		_, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS "%s" CASCADE`, table))
		if err != nil {
			t.Logf("Failed to drop table %s: %v", table, err)
		}
	}
}
