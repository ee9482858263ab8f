package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/common"
	"github.com/thirdweb-dev/offline-replay/internal/dataset"
	"github.com/thirdweb-dev/offline-replay/internal/fixture"
	"github.com/thirdweb-dev/offline-replay/internal/progress"
	"github.com/thirdweb-dev/offline-replay/internal/storage"
	"github.com/thirdweb-dev/offline-replay/test/mocks"
)

func writeDataset(t *testing.T, ds fixture.Dataset) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, fixture.Write(dir, ds, fixture.WriteOptions{RowGroupSize: 5}))
	return dir
}

func openSQLite(t *testing.T, path string) storage.IConnector {
	t.Helper()
	conn, err := storage.NewSQLiteConnector(&config.SQLiteConfig{
		Path:        path,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
		CacheSizeMB: 64,
		BusyTimeout: 5000,
	})
	require.NoError(t, err)
	return conn
}

func runLoad(t *testing.T, conn storage.IConnector, dir string, reporter progress.Reporter) (Summary, error) {
	t.Helper()
	reader, err := dataset.Open(dir, dataset.Options{BatchSize: 3})
	require.NoError(t, err)
	return New(reader, conn, reporter).Run(context.Background())
}

// loadInto runs a complete load against the database at out and closes it.
func loadInto(t *testing.T, dir, out string) Summary {
	t.Helper()
	conn := openSQLite(t, out)
	defer conn.Close()
	summary, err := runLoad(t, conn, dir, progress.Nop{})
	require.NoError(t, err)
	return summary
}

func openDB(t *testing.T, out string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", out)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

var dumpQueries = map[common.Table]string{
	common.TableBlocks:       "SELECT number, hash, parent_hash, timestamp, gas_used, gas_limit, base_fee, tx_count FROM blocks ORDER BY number",
	common.TableTransactions: "SELECT hash, block_number, tx_index, from_addr, to_addr, value, gas_used, gas_price, hex(input), status FROM transactions ORDER BY hash",
	common.TableLogs:         "SELECT block_number, tx_hash, log_index, address, topic0, topic1, topic2, topic3, hex(data) FROM logs ORDER BY tx_hash, log_index",
	common.TableTraces:       "SELECT block_number, tx_hash, tx_index, trace_json FROM traces ORDER BY block_number, tx_index",
	"load_manifest":          "SELECT dataset, present, source_rows, mapping_version FROM load_manifest ORDER BY dataset",
}

// dump renders every table row by row, leaving out the synthetic ids.
func dump(t *testing.T, db *sql.DB) map[common.Table][]string {
	t.Helper()
	out := make(map[common.Table][]string)
	for table, query := range dumpQueries {
		rows, err := db.Query(query)
		require.NoError(t, err)
		cols, err := rows.Columns()
		require.NoError(t, err)
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			require.NoError(t, rows.Scan(ptrs...))
			cells := make([]string, len(values))
			for i, v := range values {
				if b, ok := v.([]byte); ok {
					v = string(b)
				}
				cells[i] = fmt.Sprint(v)
			}
			out[table] = append(out[table], strings.Join(cells, "|"))
		}
		require.NoError(t, rows.Err())
		rows.Close()
	}
	return out
}

func TestScenario(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ethereum.db")
	summary := loadInto(t, writeDataset(t, fixture.Scenario()), out)
	db := openDB(t, out)

	assert.Equal(t, int64(3), count(t, db, "SELECT COUNT(*) FROM blocks"))
	assert.Equal(t, int64(2), count(t, db, "SELECT COUNT(*) FROM transactions"))
	assert.Equal(t, int64(4), count(t, db, "SELECT COUNT(*) FROM logs"))
	assert.Equal(t, int64(4), count(t, db, "SELECT COUNT(*) FROM logs l JOIN transactions t ON t.hash = l.tx_hash"))
	assert.Equal(t, int64(0), count(t, db, "SELECT COUNT(*) FROM traces"))

	require.Len(t, summary.Tables, 4)
	for table, want := range map[common.Table]int64{common.TableBlocks: 3, common.TableTransactions: 2, common.TableLogs: 4} {
		res, ok := summary.Table(table)
		require.True(t, ok)
		assert.True(t, res.Present)
		assert.Equal(t, want, res.Read, table)
		assert.Equal(t, want, res.Inserted, table)
		assert.Zero(t, res.Skipped, table)
		assert.Equal(t, want, res.Total, table)
	}
	traces, ok := summary.Table(common.TableTraces)
	require.True(t, ok)
	assert.False(t, traces.Present)
}

func TestLoadIsIdempotent(t *testing.T) {
	dir := writeDataset(t, fixture.Generate(1000, 6, 3, 2))
	out := filepath.Join(t.TempDir(), "ethereum.db")

	loadInto(t, dir, out)
	first := dump(t, openDB(t, out))

	summary := loadInto(t, dir, out)
	second := dump(t, openDB(t, out))

	assert.Equal(t, first, second)
	for _, res := range summary.Tables {
		assert.Zero(t, res.Inserted, res.Table)
		assert.Equal(t, res.Read, res.Skipped, res.Table)
	}
}

func TestIncrementalGrowth(t *testing.T) {
	small := fixture.Generate(1, 4, 2, 2)
	large := fixture.Generate(1, 9, 2, 2)
	out := filepath.Join(t.TempDir(), "ethereum.db")

	loadInto(t, writeDataset(t, small), out)
	summary := loadInto(t, writeDataset(t, large), out)
	db := openDB(t, out)

	assert.Equal(t, int64(len(large.Blocks)), count(t, db, "SELECT COUNT(*) FROM blocks"))
	assert.Equal(t, int64(len(large.Transactions)), count(t, db, "SELECT COUNT(DISTINCT hash) FROM transactions"))
	assert.Equal(t, int64(len(large.Logs)), count(t, db, "SELECT COUNT(*) FROM logs"))
	assert.Equal(t, int64(len(large.Traces)), count(t, db, "SELECT COUNT(*) FROM traces"))
	assert.Equal(t, int64(0), count(t, db, "SELECT COUNT(*) FROM (SELECT tx_hash, log_index FROM logs GROUP BY tx_hash, log_index HAVING COUNT(*) > 1)"))

	res, _ := summary.Table(common.TableLogs)
	assert.Equal(t, int64(len(large.Logs)-len(small.Logs)), res.Inserted)
	assert.Equal(t, int64(len(small.Logs)), res.Skipped)
}

func TestTypeFidelity(t *testing.T) {
	ds := fixture.Scenario()
	out := filepath.Join(t.TempDir(), "ethereum.db")
	loadInto(t, writeDataset(t, ds), out)
	db := openDB(t, out)

	var value, valueType string
	require.NoError(t, db.QueryRow("SELECT value, typeof(value) FROM transactions WHERE hash = ?", ds.Transactions[0].Hash).Scan(&value, &valueType))
	assert.Equal(t, fixture.LargeValue, value)
	assert.Equal(t, "text", valueType)

	var input []byte
	var inputType string
	require.NoError(t, db.QueryRow("SELECT input, typeof(input) FROM transactions WHERE hash = ?", ds.Transactions[0].Hash).Scan(&input, &inputType))
	assert.Equal(t, ds.Transactions[0].Input, input)
	assert.Equal(t, "blob", inputType)

	var data []byte
	require.NoError(t, db.QueryRow("SELECT data FROM logs WHERE tx_hash = ? AND log_index = 0", ds.Transactions[0].Hash).Scan(&data))
	assert.Equal(t, ds.Logs[0].Data, data)

	var number, timestamp int64
	require.NoError(t, db.QueryRow("SELECT number, timestamp FROM blocks WHERE number = 101").Scan(&number, &timestamp))
	assert.Equal(t, ds.Blocks[1].Timestamp, timestamp)
}

func TestNullHandling(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ethereum.db")
	loadInto(t, writeDataset(t, fixture.Scenario()), out)
	db := openDB(t, out)

	assert.Equal(t, int64(1), count(t, db, "SELECT COUNT(*) FROM transactions WHERE to_addr IS NULL"))
	assert.Equal(t, int64(1), count(t, db, "SELECT COUNT(*) FROM blocks WHERE base_fee IS NULL"))
	assert.Equal(t, int64(1), count(t, db, "SELECT COUNT(*) FROM logs WHERE topic1 IS NULL"))
	assert.Equal(t, int64(4), count(t, db, "SELECT COUNT(*) FROM logs WHERE topic3 IS NULL"))
	assert.Equal(t, int64(1), count(t, db, "SELECT COUNT(*) FROM logs WHERE data IS NULL"))
	assert.Equal(t, int64(0), count(t, db, "SELECT COUNT(*) FROM transactions WHERE input IS NULL"))
}

type failingConnector struct {
	storage.IConnector
	table common.Table
	after int
}

func (c *failingConnector) Begin(ctx context.Context, table common.Table) (storage.ITableWriter, error) {
	w, err := c.IConnector.Begin(ctx, table)
	if err != nil || table != c.table {
		return w, err
	}
	return &failingWriter{ITableWriter: w, after: c.after}, nil
}

type failingWriter struct {
	storage.ITableWriter
	after int
	calls int
}

func (w *failingWriter) InsertLog(ctx context.Context, l *common.Log) (bool, error) {
	w.calls++
	if w.calls > w.after {
		return false, &storage.StorageWriteError{Table: common.TableLogs, Op: "insert", Err: errors.New("disk I/O error")}
	}
	return w.ITableWriter.InsertLog(ctx, l)
}

func TestFailedTableIsRolledBack(t *testing.T) {
	before := fixture.Generate(1, 3, 2, 2)
	after := fixture.Generate(1, 6, 2, 2)
	out := filepath.Join(t.TempDir(), "ethereum.db")
	loadInto(t, writeDataset(t, before), out)
	logsBefore := dump(t, openDB(t, out))[common.TableLogs]

	conn := &failingConnector{IConnector: openSQLite(t, out), table: common.TableLogs, after: len(before.Logs) + 2}
	_, err := runLoad(t, conn, writeDataset(t, after), progress.Nop{})
	require.NoError(t, conn.Close())

	var writeErr *storage.StorageWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, common.TableLogs, writeErr.Table)

	db := openDB(t, out)
	assert.Equal(t, int64(len(after.Blocks)), count(t, db, "SELECT COUNT(*) FROM blocks"))
	assert.Equal(t, int64(len(after.Transactions)), count(t, db, "SELECT COUNT(*) FROM transactions"))
	assert.Equal(t, logsBefore, dump(t, db)[common.TableLogs])
	assert.Equal(t, int64(len(before.Traces)), count(t, db, "SELECT COUNT(*) FROM traces"), "tables after the failing one are not loaded")
	assert.Equal(t, int64(len(before.Logs)), count(t, db, "SELECT source_rows FROM load_manifest WHERE dataset = 'logs'"))
}

func TestSchemaErrorsAbortBeforeAnyWrite(t *testing.T) {
	type badLog struct {
		BlockNumber string `parquet:"block_number"`
	}
	dir := writeDataset(t, fixture.Scenario())
	require.NoError(t, fixture.WriteRows(filepath.Join(dir, "logs.parquet"), []badLog{{BlockNumber: "100"}}, 0))
	out := filepath.Join(t.TempDir(), "ethereum.db")

	conn := openSQLite(t, out)
	defer conn.Close()
	_, err := runLoad(t, conn, dir, progress.Nop{})

	var mismatch *dataset.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, dataset.Logs, mismatch.Dataset)
	assert.Equal(t, int64(0), count(t, conn.DB(), "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'"))
}

func TestTracesAndManifest(t *testing.T) {
	ds := fixture.Generate(50, 3, 2, 1)
	out := filepath.Join(t.TempDir(), "ethereum.db")
	summary := loadInto(t, writeDataset(t, ds), out)
	db := openDB(t, out)

	res, ok := summary.Table(common.TableTraces)
	require.True(t, ok)
	assert.True(t, res.Present)
	assert.Equal(t, int64(len(ds.Traces)), res.Inserted)
	assert.Equal(t, int64(len(ds.Traces)), count(t, db, "SELECT COUNT(*) FROM traces t JOIN transactions x ON x.hash = t.tx_hash"))

	assert.Equal(t, []string{
		fmt.Sprintf("blocks|1|%d|%d", len(ds.Blocks), dataset.MappingVersion),
		fmt.Sprintf("logs|1|%d|%d", len(ds.Logs), dataset.MappingVersion),
		fmt.Sprintf("traces|1|%d|%d", len(ds.Traces), dataset.MappingVersion),
		fmt.Sprintf("transactions|1|%d|%d", len(ds.Transactions), dataset.MappingVersion),
	}, dump(t, db)["load_manifest"])

	// a later snapshot without traces keeps the loaded traces and says so
	loadInto(t, writeDataset(t, ds.WithoutTraces()), out)
	assert.Equal(t, int64(len(ds.Traces)), count(t, db, "SELECT COUNT(*) FROM traces"))
	assert.Equal(t, int64(0), count(t, db, "SELECT present FROM load_manifest WHERE dataset = 'traces'"))
}

func TestProgressIsReportedPerTable(t *testing.T) {
	ds := fixture.Scenario()
	reporter := mocks.NewMockReporter(t)
	reporter.EXPECT().Start("blocks", int64(3)).Return().Once()
	reporter.EXPECT().Start("transactions", int64(2)).Return().Once()
	reporter.EXPECT().Start("logs", int64(4)).Return().Once()
	reporter.EXPECT().Add(mock.AnythingOfType("int")).Return()
	reporter.EXPECT().Finish("blocks", int64(3), int64(0)).Return().Once()
	reporter.EXPECT().Finish("transactions", int64(2), int64(0)).Return().Once()
	reporter.EXPECT().Finish("logs", int64(4), int64(0)).Return().Once()

	conn := openSQLite(t, filepath.Join(t.TempDir(), "ethereum.db"))
	defer conn.Close()
	_, err := runLoad(t, conn, writeDataset(t, ds), reporter)
	require.NoError(t, err)

	var added int
	for _, call := range reporter.Calls {
		if call.Method == "Add" {
			added += call.Arguments.Int(0)
		}
	}
	assert.Equal(t, 3+2+4, added)
}

func TestProgressPanicsDoNotAbortTheLoad(t *testing.T) {
	reporter := mocks.NewMockReporter(t)
	reporter.EXPECT().Start(mock.Anything, mock.Anything).Panic("terminal went away")
	reporter.EXPECT().Add(mock.Anything).Panic("terminal went away")
	reporter.EXPECT().Finish(mock.Anything, mock.Anything, mock.Anything).Panic("terminal went away")

	out := filepath.Join(t.TempDir(), "ethereum.db")
	conn := openSQLite(t, out)
	defer conn.Close()
	summary, err := runLoad(t, conn, writeDataset(t, fixture.Scenario()), reporter)
	require.NoError(t, err)

	res, _ := summary.Table(common.TableLogs)
	assert.Equal(t, int64(4), res.Total)
}

func TestCancelledLoadWritesNothing(t *testing.T) {
	dir := writeDataset(t, fixture.Scenario())
	conn := openSQLite(t, filepath.Join(t.TempDir(), "ethereum.db"))
	defer conn.Close()

	reader, err := dataset.Open(dir, dataset.Options{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(reader, conn, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, summary.Tables)
	assert.Equal(t, int64(0), count(t, conn.DB(), "SELECT COUNT(*) FROM sqlite_master"))
}

func TestCancelledAfterSchemaLeavesTablesEmpty(t *testing.T) {
	dir := writeDataset(t, fixture.Scenario())
	conn := openSQLite(t, filepath.Join(t.TempDir(), "ethereum.db"))
	defer conn.Close()
	require.NoError(t, conn.InitSchema(context.Background()))

	reader, err := dataset.Open(dir, dataset.Options{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(reader, &schemaReadyConnector{IConnector: conn}, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	for _, table := range []string{"blocks", "transactions", "logs", "traces", "load_manifest"} {
		assert.Equal(t, int64(0), count(t, conn.DB(), "SELECT COUNT(*) FROM "+table), table)
	}
}

// schemaReadyConnector skips schema creation, which the caller has done.
type schemaReadyConnector struct {
	storage.IConnector
}

func (c *schemaReadyConnector) InitSchema(context.Context) error {
	return nil
}

type countFailingConnector struct {
	storage.IConnector
}

func (c *countFailingConnector) Count(context.Context, common.Table) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestCountFailureAfterCommitIsNotALoadFailure(t *testing.T) {
	ds := fixture.Scenario()
	out := filepath.Join(t.TempDir(), "ethereum.db")
	conn := &countFailingConnector{IConnector: openSQLite(t, out)}

	summary, err := runLoad(t, conn, writeDataset(t, ds), progress.Nop{})
	require.NoError(t, conn.Close())
	require.NoError(t, err)

	require.Len(t, summary.Tables, len(common.LoadOrder))
	blocks, ok := summary.Table(common.TableBlocks)
	require.True(t, ok)
	assert.Equal(t, TotalUnknown, blocks.Total)
	assert.Equal(t, int64(len(ds.Blocks)), blocks.Inserted)

	db := openDB(t, out)
	assert.Equal(t, int64(len(ds.Blocks)), count(t, db, "SELECT COUNT(*) FROM blocks"))
	assert.Equal(t, int64(len(ds.Logs)), count(t, db, "SELECT COUNT(*) FROM logs"))
}

func TestDuckDBScenario(t *testing.T) {
	conn, err := storage.NewDuckDBConnector(&config.DuckDBConfig{Path: filepath.Join(t.TempDir(), "ethereum.duckdb")})
	require.NoError(t, err)
	defer conn.Close()

	dir := writeDataset(t, fixture.Scenario())
	for run := 0; run < 2; run++ {
		_, err := runLoad(t, conn, dir, progress.Nop{})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(3), count(t, conn.DB(), "SELECT COUNT(*) FROM blocks"))
	assert.Equal(t, int64(1), count(t, conn.DB(), "SELECT COUNT(*) FROM transactions WHERE to_addr IS NULL"))
	assert.Equal(t, int64(4), count(t, conn.DB(), "SELECT COUNT(*) FROM logs l JOIN transactions t ON t.hash = l.tx_hash"))
}
