package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type DataConfig struct {
	Dir       string `mapstructure:"dir"`
	BatchSize int    `mapstructure:"batchSize"`
}

type SQLiteConfig struct {
	Path         string `mapstructure:"path"`
	JournalMode  string `mapstructure:"journalMode"`
	Synchronous  string `mapstructure:"synchronous"`
	CacheSizeMB  int    `mapstructure:"cacheSizeMB"`
	BusyTimeout  int    `mapstructure:"busyTimeout"`
	TempStoreMem bool   `mapstructure:"tempStoreMemory"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
	// applied to every table transaction
	SynchronousCommit string `mapstructure:"synchronousCommit"`
	// applied to the schema transaction, where index builds happen
	MaintenanceWorkMem string `mapstructure:"maintenanceWorkMem"`
}

type DuckDBConfig struct {
	Path        string `mapstructure:"path"`
	MemoryLimit string `mapstructure:"memoryLimit"`
}

type StorageDriver string

const (
	StorageDriverSQLite   StorageDriver = "sqlite"
	StorageDriverPostgres StorageDriver = "postgres"
	StorageDriverDuckDB   StorageDriver = "duckdb"
)

type StorageConfig struct {
	Driver   StorageDriver  `mapstructure:"driver"`
	Out      string         `mapstructure:"out"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	DuckDB   DuckDBConfig   `mapstructure:"duckdb"`
}

type ProgressConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// milliseconds between log lines when stderr is not a terminal
	LogInterval int `mapstructure:"logInterval"`
}

type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfilePath"`
}

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Progress ProgressConfig `mapstructure:"progress"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Verify   bool           `mapstructure:"verify"`
}

var Cfg Config

const (
	DefaultOut         = "ethereum.db"
	DefaultBatchSize   = 8192
	DefaultCacheSizeMB = 64
)

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("data.batchSize", DefaultBatchSize)
	viper.SetDefault("storage.driver", string(StorageDriverSQLite))
	viper.SetDefault("storage.out", DefaultOut)
	viper.SetDefault("storage.sqlite.journalMode", "WAL")
	viper.SetDefault("storage.sqlite.synchronous", "NORMAL")
	viper.SetDefault("storage.sqlite.cacheSizeMB", DefaultCacheSizeMB)
	viper.SetDefault("storage.sqlite.busyTimeout", 5000)
	viper.SetDefault("storage.sqlite.tempStoreMemory", true)
	viper.SetDefault("storage.postgres.synchronousCommit", "off")
	viper.SetDefault("storage.postgres.maintenanceWorkMem", "256MB")
	viper.SetDefault("storage.duckdb.memoryLimit", "1GB")
	viper.SetDefault("progress.enabled", true)
	viper.SetDefault("progress.logInterval", 1000)
}

func LoadConfig(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	}

	// sets e.g. STORAGE_DRIVER to storage.driver
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	Cfg = Config{}
	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return Cfg.Validate()
}

// Validate fills the per-driver sections and rejects unusable combinations.
func (c *Config) Validate() error {
	if c.Data.BatchSize <= 0 {
		c.Data.BatchSize = DefaultBatchSize
	}
	if c.Storage.Out == "" {
		c.Storage.Out = DefaultOut
	}

	switch c.Storage.Driver {
	case StorageDriverSQLite, "":
		c.Storage.Driver = StorageDriverSQLite
		if c.Storage.SQLite.Path == "" {
			c.Storage.SQLite.Path = c.Storage.Out
		}
		if c.Storage.SQLite.CacheSizeMB <= 0 {
			c.Storage.SQLite.CacheSizeMB = DefaultCacheSizeMB
		}
	case StorageDriverDuckDB:
		if c.Storage.DuckDB.Path == "" {
			c.Storage.DuckDB.Path = c.Storage.Out
		}
	case StorageDriverPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
