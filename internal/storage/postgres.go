package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/common"
)

var postgresDialect = &dialect{
	name:     "postgres",
	intType:  "BIGINT",
	blobType: "BYTEA",
	synthetic: func(common.Table) ([]string, string) {
		return nil, "BIGSERIAL PRIMARY KEY"
	},
	placeholder: dollar,
}

func NewPostgresConnector(cfg *config.PostgresConfig) (*SQLConnector, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, writeError("", "open", fmt.Errorf("failed to connect to postgres: %w", err))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, writeError("", "open", fmt.Errorf("failed to ping postgres: %w", err))
	}

	settings := postgresSettings(cfg)
	log.Debug().
		Strs("schema_settings", settings.schema).
		Strs("table_settings", settings.table).
		Msg("Connected to postgres")

	return newSQLConnector(db, config.StorageDriverPostgres, postgresDialect, settings), nil
}

// postgresSettings scopes each setting with SET LOCAL to the transaction
// where it has an effect: maintenance_work_mem only matters while CREATE
// INDEX runs, synchronous_commit matters on every table commit.
func postgresSettings(cfg *config.PostgresConfig) sessionSettings {
	var s sessionSettings
	if cfg.MaintenanceWorkMem != "" {
		s.schema = append(s.schema, fmt.Sprintf("SET LOCAL maintenance_work_mem = '%s'", cfg.MaintenanceWorkMem))
	}
	if cfg.SynchronousCommit != "" {
		s.table = append(s.table, fmt.Sprintf("SET LOCAL synchronous_commit TO %s", cfg.SynchronousCommit))
	}
	return s
}
