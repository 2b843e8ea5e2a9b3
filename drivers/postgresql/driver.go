package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/relaydb/ormengine/drivers/base"
	"github.com/relaydb/ormengine/logger"
	"github.com/relaydb/ormengine/query"
	"github.com/relaydb/ormengine/registry"
	"github.com/relaydb/ormengine/types"
)

func init() {
	registry.Register("postgresql", func(config types.Config) (types.Database, error) {
		return NewPostgreSQLDB(config)
	})
	registry.RegisterURIParser("postgresql", NewPostgreSQLURIParser())
	registry.RegisterCapabilities(types.DriverPostgreSQL, NewPostgreSQLCapabilities())
}

// PostgreSQLDB implements types.Database on top of lib/pq.
type PostgreSQLDB struct {
	*base.Driver
	capabilities types.DriverCapabilities
	migrator     *PostgreSQLMigrator
	log          *base.DBLogger
}

// NewPostgreSQLDB creates a new, unconnected PostgreSQL database handle.
func NewPostgreSQLDB(config types.Config) (*PostgreSQLDB, error) {
	return &PostgreSQLDB{
		Driver:       base.NewDriver(config),
		capabilities: NewPostgreSQLCapabilities(),
		log:          base.NewDBLogger(nil),
	}, nil
}

// NewPostgreSQLDBFromURI parses a postgresql:// URI and returns a connected database.
func NewPostgreSQLDBFromURI(uri string) (types.Database, error) {
	config, err := NewPostgreSQLURIParser().ParseURI(uri)
	if err != nil {
		return nil, err
	}

	db, err := NewPostgreSQLDB(config)
	if err != nil {
		return nil, err
	}

	if err := db.Connect(context.Background()); err != nil {
		return nil, err
	}

	return db, nil
}

func (p *PostgreSQLDB) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Config.Host, p.Config.Port, p.Config.User, p.Config.Password, p.Config.Database)
	if mode, ok := p.Config.Options["sslmode"]; ok {
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			p.Config.Host, p.Config.Port, p.Config.User, p.Config.Password, p.Config.Database, mode)
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgresql database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to ping postgresql database: %w", err)
	}

	p.SetDB(sqlDB)
	p.migrator = NewPostgreSQLMigrator(sqlDB)
	return nil
}

func (p *PostgreSQLDB) CreateModel(ctx context.Context, modelName string) error {
	sch, err := p.GetSchema(modelName)
	if err != nil {
		return err
	}

	sqlStr, err := p.migrator.GenerateCreateTableSQL(sch)
	if err != nil {
		return fmt.Errorf("failed to generate create table SQL: %w", err)
	}

	if _, err := p.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to create table for model %s: %w", modelName, err)
	}

	for _, idx := range sch.Indexes {
		columns, err := p.ResolveFieldNames(modelName, idx.Fields)
		if err != nil {
			return fmt.Errorf("failed to resolve index fields for model %s: %w", modelName, err)
		}
		idxSQL := p.migrator.GenerateCreateIndexSQL(sch.TableName, idx.Name, columns, idx.Unique)
		if _, err := p.DB.ExecContext(ctx, idxSQL); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}

	return nil
}

func (p *PostgreSQLDB) DropModel(ctx context.Context, modelName string) error {
	sch, err := p.GetSchema(modelName)
	if err != nil {
		return err
	}

	sqlStr := p.migrator.GenerateDropTableSQL(sch.TableName)
	if _, err := p.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to drop table for model %s: %w", modelName, err)
	}
	return nil
}

func (p *PostgreSQLDB) SyncSchemas(ctx context.Context) error {
	return p.Driver.SyncSchemas(ctx, p)
}

func (p *PostgreSQLDB) Model(modelName string) types.ModelQuery {
	return query.NewModelQuery(modelName, p, p.FieldMapper)
}

func (p *PostgreSQLDB) Raw(sqlStr string, args ...any) types.RawQuery {
	return NewPostgreSQLRawQuery(p.DB, sqlStr, args...)
}

func (p *PostgreSQLDB) Begin(ctx context.Context) (types.Transaction, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return newPostgreSQLTransaction(tx, p), nil
}

func (p *PostgreSQLDB) Transaction(ctx context.Context, fn func(tx types.Transaction) error) error {
	tx, err := p.Begin(ctx)
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

func (p *PostgreSQLDB) GetMigrator() types.DatabaseMigrator {
	return p.migrator
}

func (p *PostgreSQLDB) GetCapabilities() types.DriverCapabilities {
	return p.capabilities
}

func (p *PostgreSQLDB) GetDriverType() string {
	return string(types.DriverPostgreSQL)
}

func (p *PostgreSQLDB) SetLogger(l logger.Logger) {
	p.log = base.NewDBLogger(l)
}

func (p *PostgreSQLDB) GetLogger() logger.Logger {
	return p.log.Logger
}

var _ types.Database = (*PostgreSQLDB)(nil)
