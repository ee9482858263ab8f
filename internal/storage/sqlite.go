package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/common"
	_ "modernc.org/sqlite"
)

var sqliteDialect = &dialect{
	name:     "sqlite",
	intType:  "INTEGER",
	blobType: "BLOB",
	synthetic: func(common.Table) ([]string, string) {
		return nil, "INTEGER PRIMARY KEY AUTOINCREMENT"
	},
	placeholder: questionMark,
}

var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// sqliteDSN applies the bulk-load pragmas to every connection the driver
// opens. A negative cache_size is expressed in KiB. The path is sent as a
// file: URI so that '?' or '#' in a file name is not read as a delimiter.
func sqliteDSN(cfg *config.SQLiteConfig) string {
	q := url.Values{}
	if cfg.JournalMode != "" {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", cfg.JournalMode))
	}
	if cfg.Synchronous != "" {
		q.Add("_pragma", fmt.Sprintf("synchronous(%s)", cfg.Synchronous))
	}
	if cfg.CacheSizeMB > 0 {
		q.Add("_pragma", fmt.Sprintf("cache_size(%d)", -cfg.CacheSizeMB*1024))
	}
	if cfg.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout))
	}
	if cfg.TempStoreMem {
		q.Add("_pragma", "temp_store(MEMORY)")
	}
	q.Set("_txlock", "immediate")
	return "file:" + uriPathEscaper.Replace(cfg.Path) + "?" + q.Encode()
}

func NewSQLiteConnector(cfg *config.SQLiteConfig) (*SQLConnector, error) {
	db, err := sql.Open("sqlite", sqliteDSN(cfg))
	if err != nil {
		return nil, writeError("", "open", fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err))
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, writeError("", "open", fmt.Errorf("failed to open sqlite database %s: %w", cfg.Path, err))
	}

	log.Debug().
		Str("path", cfg.Path).
		Str("journal_mode", cfg.JournalMode).
		Str("synchronous", cfg.Synchronous).
		Int("cache_size_mb", cfg.CacheSizeMB).
		Msg("Opened sqlite database")

	return newSQLConnector(db, config.StorageDriverSQLite, sqliteDialect, sessionSettings{}), nil
}
