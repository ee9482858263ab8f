package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/common"
)

// SQLConnector implements IConnector over database/sql. The pool is capped at
// one connection: a load is a single sequential writer.
type SQLConnector struct {
	db      *sql.DB
	driver  config.StorageDriver
	dialect  *dialect
	settings sessionSettings
}

// sessionSettings are statements run at the start of a transaction.
type sessionSettings struct {
	// the schema transaction, which builds the indexes
	schema []string
	// every table transaction
	table []string
}

func newSQLConnector(db *sql.DB, driver config.StorageDriver, d *dialect, settings sessionSettings) *SQLConnector {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &SQLConnector{
		db:       db,
		driver:   driver,
		dialect:  d,
		settings: settings,
	}
}

func (c *SQLConnector) DB() *sql.DB {
	return c.db
}

func (c *SQLConnector) Driver() config.StorageDriver {
	return c.driver
}

// InitSchema creates the tables and indexes that do not exist yet. It is safe
// to run against a database produced by an earlier load.
func (c *SQLConnector) InitSchema(ctx context.Context) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return writeError("", "init schema", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to roll back schema initialization")
			}
		}
	}()

	for _, stmt := range c.settings.schema {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return writeError("", "init schema", err)
		}
	}
	for _, stmt := range c.dialect.schema() {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return writeError("", "init schema", fmt.Errorf("%w\n%s", err, stmt))
		}
	}
	if err = tx.Commit(); err != nil {
		return writeError("", "init schema", err)
	}
	log.Debug().Str("driver", string(c.driver)).Msg("Schema initialized")
	return nil
}

func (c *SQLConnector) Begin(ctx context.Context, table common.Table) (ITableWriter, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, writeError(table, "begin", err)
	}
	for _, stmt := range c.settings.table {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return nil, writeError(table, "begin", err)
		}
	}
	return &sqlTableWriter{
		table:   table,
		tx:      tx,
		dialect: c.dialect,
		stmts:   make(map[string]*sql.Stmt),
	}, nil
}

func (c *SQLConnector) Count(ctx context.Context, table common.Table) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

func (c *SQLConnector) Manifest(ctx context.Context) ([]ManifestEntry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT dataset, present, source_rows, mapping_version FROM load_manifest ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("failed to read load manifest: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close rows in Manifest")
		}
	}()

	var entries []ManifestEntry
	for rows.Next() {
		var e ManifestEntry
		var present int64
		if err := rows.Scan(&e.Dataset, &present, &e.SourceRows, &e.MappingVersion); err != nil {
			return nil, fmt.Errorf("error scanning manifest entry: %w", err)
		}
		e.Present = present != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *SQLConnector) Close() error {
	return c.db.Close()
}

type sqlTableWriter struct {
	table   common.Table
	tx      *sql.Tx
	dialect *dialect
	stmts   map[string]*sql.Stmt
	done    bool
}

func (w *sqlTableWriter) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := w.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := w.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	w.stmts[query] = stmt
	return stmt, nil
}

func (w *sqlTableWriter) insert(ctx context.Context, table common.Table, columns []string, args ...any) (bool, error) {
	query := w.dialect.insertIfAbsent(table, columns, naturalKeys[table])
	stmt, err := w.prepare(ctx, query)
	if err != nil {
		return false, writeError(table, "prepare", err)
	}
	res, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return false, writeError(table, "insert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, writeError(table, "insert", err)
	}
	return n > 0, nil
}

func (w *sqlTableWriter) InsertBlock(ctx context.Context, b *common.Block) (bool, error) {
	return w.insert(ctx, common.TableBlocks, blockColumns,
		b.Number,
		b.Hash,
		b.ParentHash,
		b.Timestamp,
		b.GasUsed,
		b.GasLimit,
		nullString(b.BaseFee),
		b.TxCount,
	)
}

func (w *sqlTableWriter) InsertTransaction(ctx context.Context, tx *common.Transaction) (bool, error) {
	return w.insert(ctx, common.TableTransactions, transactionColumns,
		tx.Hash,
		tx.BlockNumber,
		tx.TransactionIndex,
		tx.FromAddress,
		nullString(tx.ToAddress),
		tx.Value,
		tx.GasUsed,
		tx.GasPrice,
		nonNullBytes(tx.Input),
		tx.Status,
	)
}

func (w *sqlTableWriter) InsertLog(ctx context.Context, l *common.Log) (bool, error) {
	return w.insert(ctx, common.TableLogs, logColumns,
		l.BlockNumber,
		l.TransactionHash,
		l.LogIndex,
		l.Address,
		nullString(l.Topic0),
		nullString(l.Topic1),
		nullString(l.Topic2),
		nullString(l.Topic3),
		nullBytes(l.Data),
	)
}

func (w *sqlTableWriter) InsertTrace(ctx context.Context, t *common.Trace) (bool, error) {
	return w.insert(ctx, common.TableTraces, traceColumns,
		t.BlockNumber,
		t.TransactionHash,
		t.TransactionIndex,
		t.TraceJSON,
	)
}

func (w *sqlTableWriter) RecordManifest(ctx context.Context, entry ManifestEntry) error {
	stmt, err := w.prepare(ctx, w.dialect.upsertManifest())
	if err != nil {
		return writeError(w.table, "prepare", err)
	}
	present := 0
	if entry.Present {
		present = 1
	}
	if _, err := stmt.ExecContext(ctx, entry.Dataset, present, entry.SourceRows, entry.MappingVersion); err != nil {
		return writeError(w.table, "manifest", err)
	}
	return nil
}

func (w *sqlTableWriter) closeStmts() {
	for query, stmt := range w.stmts {
		if err := stmt.Close(); err != nil {
			log.Debug().Err(err).Str("query", query).Msg("Failed to close prepared statement")
		}
	}
	w.stmts = nil
}

func (w *sqlTableWriter) Commit() error {
	if w.done {
		return nil
	}
	w.closeStmts()
	w.done = true
	return writeError(w.table, "commit", w.tx.Commit())
}

// Rollback is a no-op after Commit.
func (w *sqlTableWriter) Rollback() error {
	if w.done {
		return nil
	}
	w.closeStmts()
	w.done = true
	// a cancelled context has already rolled the transaction back
	if err := w.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return writeError(w.table, "rollback", err)
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func nonNullBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
