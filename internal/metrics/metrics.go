package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Loader Metrics
var (
	RowsRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_rows_read_total",
		Help: "The total number of rows read from a dataset",
	}, []string{"table"})

	RowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_rows_inserted_total",
		Help: "The total number of rows inserted into a table",
	}, []string{"table"})

	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_rows_skipped_total",
		Help: "The total number of rows skipped because their natural key already existed",
	}, []string{"table"})

	TableLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_table_failures_total",
		Help: "The number of table loads that were rolled back",
	}, []string{"table"})

	TableRowCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "loader_table_rows",
		Help: "The number of rows in a table after its load committed",
	}, []string{"table"})
)

// Operation Duration Metrics
var (
	TableLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loader_table_load_duration_seconds",
		Help:    "Time taken to load one table, from the first read to commit",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})

	BatchInsertDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loader_batch_insert_duration_seconds",
		Help:    "Time taken to insert one batch of rows",
		Buckets: prometheus.DefBuckets,
	}, []string{"table"})

	SchemaInitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loader_schema_init_duration_seconds",
		Help:    "Time taken to create tables and indexes",
		Buckets: prometheus.DefBuckets,
	})
)

// Verification Metrics
var (
	DanglingReferences = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "loader_dangling_references",
		Help: "Rows whose referenced block or transaction is absent from the output",
	}, []string{"check"})
)

// WriteTextfile dumps every registered metric in the text exposition format
// read by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
