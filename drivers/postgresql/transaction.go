package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/relaydb/ormengine/drivers/base"
	"github.com/relaydb/ormengine/query"
	"github.com/relaydb/ormengine/types"
)

// PostgreSQLTransaction implements types.Transaction over an open *sql.Tx.
type PostgreSQLTransaction struct {
	tx    *sql.Tx
	txDB  *txDatabase
	utils *base.TransactionUtils
}

func newPostgreSQLTransaction(tx *sql.Tx, db *PostgreSQLDB) *PostgreSQLTransaction {
	return &PostgreSQLTransaction{
		tx:    tx,
		txDB:  &txDatabase{PostgreSQLDB: db, tx: tx},
		utils: base.NewTransactionUtils(tx, db, "postgresql"),
	}
}

func (t *PostgreSQLTransaction) Model(modelName string) types.ModelQuery {
	return query.NewModelQuery(modelName, t.txDB, t.txDB.FieldMapper)
}

func (t *PostgreSQLTransaction) Raw(sqlStr string, args ...any) types.RawQuery {
	return NewPostgreSQLTxRawQuery(t.tx, sqlStr, args...)
}

func (t *PostgreSQLTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *PostgreSQLTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

func (t *PostgreSQLTransaction) Savepoint(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, fmt.Sprintf("SAVEPOINT %s", name))
	return err
}

func (t *PostgreSQLTransaction) RollbackTo(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", name))
	return err
}

func (t *PostgreSQLTransaction) CreateMany(ctx context.Context, modelName string, data []any) (types.Result, error) {
	return t.utils.CreateMany(ctx, modelName, data)
}

func (t *PostgreSQLTransaction) UpdateMany(ctx context.Context, modelName string, condition types.Condition, data any) (types.Result, error) {
	return t.utils.UpdateMany(ctx, modelName, condition, data)
}

func (t *PostgreSQLTransaction) DeleteMany(ctx context.Context, modelName string, condition types.Condition) (types.Result, error) {
	return t.utils.DeleteMany(ctx, modelName, condition)
}

var _ types.Transaction = (*PostgreSQLTransaction)(nil)

// txDatabase overrides the raw-execution methods of PostgreSQLDB so the
// query package runs its generated SQL against the transaction's connection.
type txDatabase struct {
	*PostgreSQLDB
	tx *sql.Tx
}

func (d *txDatabase) Raw(sqlStr string, args ...any) types.RawQuery {
	return NewPostgreSQLTxRawQuery(d.tx, sqlStr, args...)
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
