package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "github.com/thirdweb-dev/offline-replay/configs"
)

func TestSQLiteDSNCarriesPragmas(t *testing.T) {
	dsn := sqliteDSN(&config.SQLiteConfig{
		Path:         "/tmp/out.db",
		JournalMode:  "WAL",
		Synchronous:  "NORMAL",
		CacheSizeMB:  64,
		BusyTimeout:  5000,
		TempStoreMem: true,
	})

	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/out.db?"), dsn)
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
	assert.Contains(t, dsn, "synchronous%28NORMAL%29")
	assert.Contains(t, dsn, "cache_size%28-65536%29")
	assert.Contains(t, dsn, "_txlock=immediate")
}

func TestSQLiteDSNEscapesPathDelimiters(t *testing.T) {
	dsn := sqliteDSN(&config.SQLiteConfig{Path: "/tmp/a?b#c%d.db"})

	assert.True(t, strings.HasPrefix(dsn, "file:/tmp/a%3fb%23c%25d.db?"), dsn)
}

func TestSQLiteOpensPathWithQuestionMark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "what?.db")
	conn, err := NewSQLiteConnector(&config.SQLiteConfig{
		Path:        path,
		JournalMode: "WAL",
		CacheSizeMB: 8,
	})
	require.NoError(t, err)
	require.NoError(t, conn.InitSchema(context.Background()))

	var journal string
	require.NoError(t, conn.DB().QueryRow("PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)
	require.NoError(t, conn.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "what"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLitePragmasApply(t *testing.T) {
	conn := newTestSQLite(t)

	var journal string
	require.NoError(t, conn.DB().QueryRow("PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)

	var cacheSize int64
	require.NoError(t, conn.DB().QueryRow("PRAGMA cache_size").Scan(&cacheSize))
	assert.Equal(t, int64(-65536), cacheSize)
}

func TestSQLiteIndexes(t *testing.T) {
	conn := newTestSQLite(t)
	require.NoError(t, conn.InitSchema(context.Background()))

	rows, err := conn.DB().Query("SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{
		"idx_log_address",
		"idx_log_block",
		"idx_log_topic0",
		"idx_trace_block",
		"idx_trace_tx",
		"idx_tx_block",
		"idx_tx_from",
		"idx_tx_to",
	}, names)
}

func TestSQLiteHasNoForeignKeys(t *testing.T) {
	conn := newTestSQLite(t)
	require.NoError(t, conn.InitSchema(context.Background()))

	for _, table := range []string{"transactions", "logs", "traces"} {
		var n int
		require.NoError(t, conn.DB().QueryRow("SELECT COUNT(*) FROM pragma_foreign_key_list(?)", table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestNewConnectorRejectsUnconfiguredDriver(t *testing.T) {
	_, err := NewConnector(&config.StorageConfig{Driver: config.StorageDriverDuckDB})
	assert.Error(t, err)

	_, err = NewConnector(&config.StorageConfig{Driver: config.StorageDriverPostgres})
	assert.Error(t, err)

	_, err = NewConnector(&config.StorageConfig{Driver: "mysql"})
	assert.Error(t, err)
}
