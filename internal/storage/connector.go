package storage

import (
	"context"
	"database/sql"
	"fmt"

	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/common"
)

// ManifestEntry records what a run found for one dataset. It carries no
// timestamps so identical input always yields an identical row.
type ManifestEntry struct {
	Dataset        string
	Present        bool
	SourceRows     int64
	MappingVersion int
}

// IConnector owns the output database for the lifetime of one load.
type IConnector interface {
	InitSchema(ctx context.Context) error
	Begin(ctx context.Context, table common.Table) (ITableWriter, error)
	Count(ctx context.Context, table common.Table) (int64, error)
	Manifest(ctx context.Context) ([]ManifestEntry, error)
	DB() *sql.DB
	Driver() config.StorageDriver
	Close() error
}

// ITableWriter is one table's transaction. Insert methods report whether the
// row was new; a row whose natural key already exists is left untouched.
type ITableWriter interface {
	InsertBlock(ctx context.Context, b *common.Block) (bool, error)
	InsertTransaction(ctx context.Context, tx *common.Transaction) (bool, error)
	InsertLog(ctx context.Context, l *common.Log) (bool, error)
	InsertTrace(ctx context.Context, t *common.Trace) (bool, error)
	RecordManifest(ctx context.Context, entry ManifestEntry) error
	Commit() error
	Rollback() error
}

func NewConnector(cfg *config.StorageConfig) (IConnector, error) {
	var conn IConnector
	var err error
	switch cfg.Driver {
	case config.StorageDriverSQLite, "":
		if cfg.SQLite.Path == "" {
			return nil, fmt.Errorf("sqlite storage is not configured")
		}
		conn, err = NewSQLiteConnector(&cfg.SQLite)
	case config.StorageDriverPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres storage is not configured")
		}
		conn, err = NewPostgresConnector(&cfg.Postgres)
	case config.StorageDriverDuckDB:
		if cfg.DuckDB.Path == "" {
			return nil, fmt.Errorf("duckdb storage is not configured")
		}
		conn, err = NewDuckDBConnector(&cfg.DuckDB)
	default:
		return nil, fmt.Errorf("no storage driver configured")
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
