package storage

import (
	"fmt"
	"strings"

	"github.com/thirdweb-dev/offline-replay/internal/common"
)

// dialect captures the differences between the supported databases.
type dialect struct {
	name string
	// integer column type; SQLite keeps INTEGER so blocks.number aliases rowid
	intType  string
	blobType string
	// synthetic returns the column definition of an auto-assigned id and the
	// statements that must run before the owning table is created.
	synthetic   func(table common.Table) (pre []string, def string)
	placeholder func(n int) string
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Foreign keys are by convention only: transactions.block_number and
// logs.block_number refer to blocks.number, logs.tx_hash to
// transactions.hash. Nothing enforces them.
func (d *dialect) schema() []string {
	var stmts []string

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS blocks (
    number      %[1]s PRIMARY KEY,
    hash        TEXT NOT NULL,
    parent_hash TEXT NOT NULL,
    timestamp   %[1]s NOT NULL,
    gas_used    %[1]s NOT NULL,
    gas_limit   %[1]s NOT NULL,
    base_fee    TEXT,
    tx_count    %[1]s NOT NULL
)`, d.intType))

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS transactions (
    hash         TEXT PRIMARY KEY,
    block_number %[1]s NOT NULL,
    tx_index     %[1]s NOT NULL,
    from_addr    TEXT NOT NULL,
    to_addr      TEXT,
    value        TEXT NOT NULL,
    gas_used     %[1]s NOT NULL,
    gas_price    TEXT NOT NULL,
    input        %[2]s NOT NULL,
    status       %[1]s NOT NULL,
    UNIQUE (block_number, tx_index)
)`, d.intType, d.blobType),
		`CREATE INDEX IF NOT EXISTS idx_tx_block ON transactions(block_number)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_from ON transactions(from_addr)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_to ON transactions(to_addr)`,
	)

	pre, logID := d.synthetic(common.TableLogs)
	stmts = append(stmts, pre...)
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS logs (
    id           %[3]s,
    block_number %[1]s NOT NULL,
    tx_hash      TEXT NOT NULL,
    log_index    %[1]s NOT NULL,
    address      TEXT NOT NULL,
    topic0       TEXT,
    topic1       TEXT,
    topic2       TEXT,
    topic3       TEXT,
    data         %[2]s,
    UNIQUE (tx_hash, log_index)
)`, d.intType, d.blobType, logID),
		`CREATE INDEX IF NOT EXISTS idx_log_block ON logs(block_number)`,
		`CREATE INDEX IF NOT EXISTS idx_log_address ON logs(address)`,
		`CREATE INDEX IF NOT EXISTS idx_log_topic0 ON logs(topic0)`,
	)

	pre, traceID := d.synthetic(common.TableTraces)
	stmts = append(stmts, pre...)
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS traces (
    id           %[2]s,
    block_number %[1]s NOT NULL,
    tx_hash      TEXT NOT NULL,
    tx_index     %[1]s NOT NULL,
    trace_json   TEXT NOT NULL,
    UNIQUE (block_number, tx_index)
)`, d.intType, traceID),
		`CREATE INDEX IF NOT EXISTS idx_trace_block ON traces(block_number)`,
		`CREATE INDEX IF NOT EXISTS idx_trace_tx ON traces(tx_hash)`,
	)

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS load_manifest (
    dataset         TEXT PRIMARY KEY,
    present         %[1]s NOT NULL,
    source_rows     %[1]s NOT NULL,
    mapping_version %[1]s NOT NULL
)`, d.intType))

	return stmts
}

// insertIfAbsent builds an insert that does nothing when the natural key
// already exists.
func (d *dialect) insertIfAbsent(table common.Table, columns []string, key []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = d.placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(key, ", "))
}

func (d *dialect) upsertManifest() string {
	return fmt.Sprintf(`INSERT INTO load_manifest (dataset, present, source_rows, mapping_version)
VALUES (%s, %s, %s, %s)
ON CONFLICT (dataset) DO UPDATE SET
    present = excluded.present,
    source_rows = excluded.source_rows,
    mapping_version = excluded.mapping_version`,
		d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4))
}

var (
	blockColumns       = []string{"number", "hash", "parent_hash", "timestamp", "gas_used", "gas_limit", "base_fee", "tx_count"}
	transactionColumns = []string{"hash", "block_number", "tx_index", "from_addr", "to_addr", "value", "gas_used", "gas_price", "input", "status"}
	logColumns         = []string{"block_number", "tx_hash", "log_index", "address", "topic0", "topic1", "topic2", "topic3", "data"}
	traceColumns       = []string{"block_number", "tx_hash", "tx_index", "trace_json"}

	naturalKeys = map[common.Table][]string{
		common.TableBlocks:       {"number"},
		common.TableTransactions: {"hash"},
		common.TableLogs:         {"tx_hash", "log_index"},
		common.TableTraces:       {"block_number", "tx_index"},
	}
)
