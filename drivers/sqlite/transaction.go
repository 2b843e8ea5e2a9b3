package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relaydb/ormengine/drivers/base"
	"github.com/relaydb/ormengine/query"
	"github.com/relaydb/ormengine/types"
)

// SQLiteTransaction implements types.Transaction over an open *sql.Tx. Model
// and Raw queries are routed through txDatabase so generated SQL runs inside
// the transaction rather than on the pooled connection.
type SQLiteTransaction struct {
	tx    *sql.Tx
	txDB  *txDatabase
	utils *base.TransactionUtils
}

func newSQLiteTransaction(tx *sql.Tx, db *SQLiteDB) *SQLiteTransaction {
	return &SQLiteTransaction{
		tx:    tx,
		txDB:  &txDatabase{SQLiteDB: db, tx: tx},
		utils: base.NewTransactionUtils(tx, db, "sqlite"),
	}
}

func (t *SQLiteTransaction) Model(modelName string) types.ModelQuery {
	return query.NewModelQuery(modelName, t.txDB, t.txDB.FieldMapper)
}

func (t *SQLiteTransaction) Raw(sqlStr string, args ...any) types.RawQuery {
	return NewSQLiteTxRawQuery(t.tx, sqlStr, args...)
}

func (t *SQLiteTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *SQLiteTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

func (t *SQLiteTransaction) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, fmt.Sprintf("SAVEPOINT %s", name))
	return err
}

func (t *SQLiteTransaction) RollbackTo(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", name))
	return err
}

func (t *SQLiteTransaction) CreateMany(ctx context.Context, modelName string, data []any) (types.Result, error) {
	return t.utils.CreateMany(ctx, modelName, data)
}

func (t *SQLiteTransaction) UpdateMany(ctx context.Context, modelName string, condition types.Condition, data any) (types.Result, error) {
	return t.utils.UpdateMany(ctx, modelName, condition, data)
}

func (t *SQLiteTransaction) DeleteMany(ctx context.Context, modelName string, condition types.Condition) (types.Result, error) {
	return t.utils.DeleteMany(ctx, modelName, condition)
}

var _ types.Transaction = (*SQLiteTransaction)(nil)

// txDatabase overrides the raw-execution methods of SQLiteDB so the query
// package (which always talks to a types.Database) runs its generated SQL
// against the transaction's connection.
type txDatabase struct {
	*SQLiteDB
	tx *sql.Tx
}

func (d *txDatabase) Raw(sqlStr string, args ...any) types.RawQuery {
	return NewSQLiteTxRawQuery(d.tx, sqlStr, args...)
}

func (d *txDatabase) Exec(query string, args ...any) (sql.Result, error) {
	return d.tx.Exec(query, args...)
}

func (d *txDatabase) Query(query string, args ...any) (*sql.Rows, error) {
	return d.tx.Query(query, args...)
}

func (d *txDatabase) QueryRow(query string, args ...any) *sql.Row {
	return d.tx.QueryRow(query, args...)
}
