package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/common"
)

var duckdbDialect = &dialect{
	name:     "duckdb",
	intType:  "BIGINT",
	blobType: "BLOB",
	synthetic: func(table common.Table) ([]string, string) {
		seq := fmt.Sprintf("%s_id_seq", table)
		return []string{fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", seq)},
			fmt.Sprintf("BIGINT PRIMARY KEY DEFAULT nextval('%s')", seq)
	},
	placeholder: questionMark,
}

func NewDuckDBConnector(cfg *config.DuckDBConfig) (*SQLConnector, error) {
	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, writeError("", "open", fmt.Errorf("failed to open DuckDB: %w", err))
	}

	// the pool holds a single connection, so these settings persist
	newConn := newSQLConnector(db, config.StorageDriverDuckDB, duckdbDialect, sessionSettings{})
	if cfg.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit = '%s'", cfg.MemoryLimit)); err != nil {
			db.Close()
			return nil, writeError("", "open", fmt.Errorf("failed to set memory_limit: %w", err))
		}
	}
	if _, err := db.Exec("SET preserve_insertion_order = false"); err != nil {
		db.Close()
		return nil, writeError("", "open", fmt.Errorf("failed to configure DuckDB: %w", err))
	}

	log.Debug().Str("path", cfg.Path).Str("memory_limit", cfg.MemoryLimit).Msg("Opened DuckDB database")
	return newConn, nil
}
