package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relaydb/ormengine/drivers/base"
	"github.com/relaydb/ormengine/logger"
	"github.com/relaydb/ormengine/query"
	"github.com/relaydb/ormengine/registry"
	"github.com/relaydb/ormengine/types"
)

func init() {
	registry.Register("sqlite", func(config types.Config) (types.Database, error) {
		return NewSQLiteDB(config)
	})
	registry.RegisterURIParser("sqlite", NewSQLiteURIParser())
	registry.RegisterCapabilities(types.DriverSQLite, NewSQLiteCapabilities())
}

// SQLiteDB implements types.Database on top of mattn/go-sqlite3.
type SQLiteDB struct {
	*base.Driver
	capabilities types.DriverCapabilities
	migrator     *SQLiteMigrator
	log          *base.DBLogger
}

// NewSQLiteDB creates a new, unconnected SQLite database handle.
func NewSQLiteDB(config types.Config) (*SQLiteDB, error) {
	return &SQLiteDB{
		Driver:       base.NewDriver(config),
		capabilities: NewSQLiteCapabilities(),
		log:          base.NewDBLogger(nil),
	}, nil
}

// NewSQLiteDBFromURI parses a sqlite:// URI and returns a connected database.
func NewSQLiteDBFromURI(uri string) (types.Database, error) {
	config, err := NewSQLiteURIParser().ParseURI(uri)
	if err != nil {
		return nil, err
	}

	db, err := NewSQLiteDB(config)
	if err != nil {
		return nil, err
	}

	if err := db.Connect(context.Background()); err != nil {
		return nil, err
	}

	return db, nil
}

func (s *SQLiteDB) Connect(ctx context.Context) error {
	path := s.Config.FilePath
	if path == "" {
		path = ":memory:"
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	// SQLite only allows one writer at a time; a single connection avoids
	// "database is locked" errors under concurrent access.
	sqlDB.SetMaxOpenConns(1)

	s.SetDB(sqlDB)
	s.migrator = NewSQLiteMigrator(sqlDB)
	return nil
}

func (s *SQLiteDB) CreateModel(ctx context.Context, modelName string) error {
	sch, err := s.GetSchema(modelName)
	if err != nil {
		return err
	}

	sqlStr, err := s.migrator.GenerateCreateTableSQL(sch)
	if err != nil {
		return fmt.Errorf("failed to generate create table SQL: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to create table for model %s: %w", modelName, err)
	}

	for _, idx := range sch.Indexes {
		columns, err := s.ResolveFieldNames(modelName, idx.Fields)
		if err != nil {
			return fmt.Errorf("failed to resolve index fields for model %s: %w", modelName, err)
		}
		idxSQL := s.migrator.GenerateCreateIndexSQL(sch.TableName, idx.Name, columns, idx.Unique)
		if _, err := s.DB.ExecContext(ctx, idxSQL); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}

	return nil
}

func (s *SQLiteDB) DropModel(ctx context.Context, modelName string) error {
	sch, err := s.GetSchema(modelName)
	if err != nil {
		return err
	}

	sqlStr := s.migrator.GenerateDropTableSQL(sch.TableName)
	if _, err := s.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to drop table for model %s: %w", modelName, err)
	}
	return nil
}

func (s *SQLiteDB) SyncSchemas(ctx context.Context) error {
	return s.Driver.SyncSchemas(ctx, s)
}

func (s *SQLiteDB) Model(modelName string) types.ModelQuery {
	return query.NewModelQuery(modelName, s, s.FieldMapper)
}

func (s *SQLiteDB) Raw(sqlStr string, args ...any) types.RawQuery {
	return NewSQLiteRawQuery(s.DB, sqlStr, args...)
}

func (s *SQLiteDB) Begin(ctx context.Context) (types.Transaction, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return newSQLiteTransaction(tx, s), nil
}

func (s *SQLiteDB) Transaction(ctx context.Context, fn func(tx types.Transaction) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit(ctx)
}

func (s *SQLiteDB) GetMigrator() types.DatabaseMigrator {
	return s.migrator
}

func (s *SQLiteDB) GetCapabilities() types.DriverCapabilities {
	return s.capabilities
}

func (s *SQLiteDB) GetDriverType() string {
	return string(types.DriverSQLite)
}

func (s *SQLiteDB) SetLogger(l logger.Logger) {
	s.log = base.NewDBLogger(l)
}

func (s *SQLiteDB) GetLogger() logger.Logger {
	return s.log.Logger
}

var _ types.Database = (*SQLiteDB)(nil)
