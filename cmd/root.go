package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/dataset"
	"github.com/thirdweb-dev/offline-replay/internal/env"
	"github.com/thirdweb-dev/offline-replay/internal/loader"
	customLogger "github.com/thirdweb-dev/offline-replay/internal/log"
	"github.com/thirdweb-dev/offline-replay/internal/metrics"
	"github.com/thirdweb-dev/offline-replay/internal/progress"
	"github.com/thirdweb-dev/offline-replay/internal/storage"
	"github.com/thirdweb-dev/offline-replay/internal/validation"
)

var (
	// Used for flags.
	cfgFile    string
	noProgress bool

	rootCmd = &cobra.Command{
		Use:   "loader",
		Short: "Load a captured chain snapshot into a SQL database",
		Long: "Load the columnar datasets of a captured chain snapshot (blocks, transactions, logs and optionally traces) " +
			"into an indexed relational database. Re-running against the same output only adds rows that are not there yet.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunLoad(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringP("data", "d", "", "Directory containing blocks.parquet, transactions.parquet and logs.parquet")
	rootCmd.PersistentFlags().Int("batch-size", config.DefaultBatchSize, "Rows read per batch")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.Flags().StringP("out", "o", config.DefaultOut, "Output database path")
	rootCmd.Flags().String("driver", string(config.StorageDriverSQLite), "Output database driver: sqlite, duckdb or postgres")
	rootCmd.Flags().String("postgres-dsn", "", "Postgres connection string, required with --driver=postgres")
	rootCmd.Flags().Int("cache-size-mb", config.DefaultCacheSizeMB, "SQLite page cache size in MiB")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress rendering")
	rootCmd.Flags().Bool("verify", false, "Report rows whose referenced block or transaction is missing after the load")
	rootCmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this file on exit")
	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("data.batchSize", rootCmd.PersistentFlags().Lookup("batch-size"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("storage.out", rootCmd.Flags().Lookup("out"))
	viper.BindPFlag("storage.driver", rootCmd.Flags().Lookup("driver"))
	viper.BindPFlag("storage.postgres.dsn", rootCmd.Flags().Lookup("postgres-dsn"))
	viper.BindPFlag("storage.sqlite.cacheSizeMB", rootCmd.Flags().Lookup("cache-size-mb"))
	viper.BindPFlag("verify", rootCmd.Flags().Lookup("verify"))
	viper.BindPFlag("metrics.textfilePath", rootCmd.Flags().Lookup("metrics-file"))
	rootCmd.AddCommand(inspectCmd)
}

func initConfig() error {
	env.Load()
	if err := config.LoadConfig(cfgFile); err != nil {
		return err
	}
	if noProgress {
		config.Cfg.Progress.Enabled = false
	}
	customLogger.InitLogger()
	return nil
}

func RunLoad(cmd *cobra.Command, args []string) error {
	if config.Cfg.Data.Dir == "" {
		return fmt.Errorf("--data is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if err := metrics.WriteTextfile(config.Cfg.Metrics.TextfilePath); err != nil {
			log.Error().Err(err).Msg("Failed to write metrics")
		}
	}()

	reader, err := dataset.Open(config.Cfg.Data.Dir, dataset.Options{BatchSize: config.Cfg.Data.BatchSize})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Output: %s\n", outputName())

	conn, err := storage.NewConnector(&config.Cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close output database")
		}
	}()

	log.Info().Str("driver", string(conn.Driver())).Str("data", reader.Dir()).Msg("Starting load")
	reporter := progress.New(config.Cfg.Progress, os.Stderr)
	summary, err := loader.New(reader, conn, reporter).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted, the table in progress was rolled back: %w", err)
		}
		return err
	}

	if config.Cfg.Verify {
		report, err := validation.FindDanglingReferences(ctx, conn.DB())
		if err != nil {
			return err
		}
		if !report.Clean() {
			log.Warn().Msg("Output contains dangling references, see the warnings above")
		}
	}

	printSummary(out, summary)
	return nil
}

func outputName() string {
	if config.Cfg.Storage.Driver == config.StorageDriverPostgres {
		return "postgres"
	}
	return config.Cfg.Storage.Out
}

func printSummary(out io.Writer, summary loader.Summary) {
	fmt.Fprintln(out, "\nDone.")
	for _, res := range summary.Tables {
		if !res.Present {
			fmt.Fprintf(out, "  %s: not present in snapshot\n", res.Table)
			continue
		}
		if res.Total == loader.TotalUnknown {
			fmt.Fprintf(out, "  %s: %d new, %d already present (row count unavailable)\n", res.Table, res.Inserted, res.Skipped)
			continue
		}
		fmt.Fprintf(out, "  %d %s (%d new, %d already present)\n", res.Total, res.Table, res.Inserted, res.Skipped)
	}
	switch config.Cfg.Storage.Driver {
	case config.StorageDriverSQLite:
		fmt.Fprintf(out, "\nQuery with:  sqlite3 %s\n", config.Cfg.Storage.Out)
	case config.StorageDriverDuckDB:
		fmt.Fprintf(out, "\nQuery with:  duckdb %s\n", config.Cfg.Storage.Out)
	}
}
