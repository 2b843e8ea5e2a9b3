package sqlite

import (
	"testing"

	"github.com/relaydb/ormengine/orm"
	"github.com/relaydb/ormengine/types"
)

func TestSQLiteOrmConformance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping orm conformance tests in short mode")
	}

	uri := testDatabaseURI()

	suite := &orm.OrmConformanceTests{
		DriverName:  "SQLite",
		DatabaseURI: uri,
		NewDatabase: func(uri string) (types.Database, error) {
			return NewSQLiteDBFromURI(uri)
		},
		SkipTests: map[string]bool{
			// SQLite-specific skips
			"TestTransactionConcurrentAccess": true, // SQLite uses database-level locking
		},
		CleanupTables: func(t *testing.T, db types.Database) {
			// Use the same cleanup logic as conformance tests
			if sqliteDB, ok := db.(*SQLiteDB); ok {
				cleanupTables(t, sqliteDB)
			}
		},
		Characteristics: orm.OrmDriverCharacteristics{
			SupportsReturning:          true,
			MaxConnectionPoolSize:      1,
			SupportsNestedTransactions: false,
			ReturnsStringForNumbers:    false,
		},
	}

	suite.RunAll(t)
}
