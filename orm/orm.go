package orm

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relaydb/ormengine/migration"
	"github.com/relaydb/ormengine/registry"
	"github.com/relaydb/ormengine/schema"
	"github.com/relaydb/ormengine/types"
)

// Global ORM instance
var globalORM *ORM

type ORM struct {
	schemas  map[string]*schema.Schema
	database types.Database
	migrator *migration.Manager
}

// newDatabaseFromURI resolves a connection URI through the registry's
// registered URI parsers and driver factories, mirroring what a dialect
// package's init() wires up for its own scheme(s).
func newDatabaseFromURI(uri string) (types.Database, error) {
	config, err := registry.ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URI: %w", err)
	}

	factory, err := registry.Get(config.Type)
	if err != nil {
		return nil, err
	}

	return factory(config)
}

// ORMOptions contains options for ORM initialization
type ORMOptions struct {
	AutoMigrate bool
	DryRun      bool
	Force       bool
}

// InitializeORM wires a set of already-constructed schemas to a database
// identified by URI and, if requested, auto-migrates them. Parsing a schema
// description language into these schema.Schema values is an external
// collaborator's concern and is not performed here; callers that accept
// schema source text are expected to parse it themselves.
func InitializeORM(schemas map[string]*schema.Schema, dbURL string, options ...ORMOptions) error {
	opts := ORMOptions{AutoMigrate: true}
	if len(options) > 0 {
		opts = options[0]
	}

	if len(schemas) == 0 {
		return fmt.Errorf("no models provided")
	}

	orm := &ORM{
		schemas: make(map[string]*schema.Schema, len(schemas)),
	}
	for name, s := range schemas {
		orm.schemas[name] = s
	}

	db, err := newDatabaseFromURI(dbURL)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := db.Connect(context.Background()); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	orm.database = db

	migrationOpts := types.MigrationOptions{
		AutoMigrate: opts.AutoMigrate,
		DryRun:      opts.DryRun,
		Force:       opts.Force,
	}

	migrator, err := migration.NewManager(db, migrationOpts)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}
	orm.migrator = migrator

	if opts.AutoMigrate {
		if err := orm.migrator.Migrate(orm.schemas); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	globalORM = orm

	return nil
}

// GetSchemas returns all registered schemas
func GetSchemas() map[string]*schema.Schema {
	if globalORM == nil {
		return nil
	}
	return globalORM.schemas
}

// GetSchema returns a specific schema by name
func GetSchema(name string) *schema.Schema {
	if globalORM == nil {
		return nil
	}
	return globalORM.schemas[name]
}

// GetDatabase returns the database instance
func GetDatabase() types.Database {
	if globalORM == nil {
		return nil
	}
	return globalORM.database
}

// GetMigrator returns the migration manager
func GetMigrator() *migration.Manager {
	if globalORM == nil {
		return nil
	}
	return globalORM.migrator
}

// extractSQLDB extracts the underlying sql.DB from a Database interface
func extractSQLDB(db types.Database) (*sql.DB, error) {
	// This is a bit hacky, but we need to access the underlying sql.DB
	// for the migration manager. In a real implementation, we might want
	// to add this method to the Database interface.

	switch d := db.(type) {
	case interface{ GetDB() *sql.DB }:
		return d.GetDB(), nil
	default:
		// Try to use reflection or add a method to access sql.DB
		return nil, fmt.Errorf("cannot extract sql.DB from database type %T", db)
	}
}
