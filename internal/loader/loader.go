package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/offline-replay/internal/common"
	"github.com/thirdweb-dev/offline-replay/internal/dataset"
	"github.com/thirdweb-dev/offline-replay/internal/metrics"
	"github.com/thirdweb-dev/offline-replay/internal/progress"
	"github.com/thirdweb-dev/offline-replay/internal/storage"
)

// TableResult describes the load of one table.
type TableResult struct {
	Table    common.Table
	Present  bool
	Read     int64
	Inserted int64
	Skipped  int64
	// Total is the table's row count after commit, including rows from
	// earlier loads. It is TotalUnknown when the count could not be read.
	Total    int64
	Duration time.Duration
}

const TotalUnknown int64 = -1

type Summary struct {
	Tables []TableResult
}

func (s Summary) Table(t common.Table) (TableResult, bool) {
	for _, r := range s.Tables {
		if r.Table == t {
			return r, true
		}
	}
	return TableResult{}, false
}

type Loader struct {
	reader   *dataset.Reader
	conn     storage.IConnector
	reporter progress.Reporter
}

func New(reader *dataset.Reader, conn storage.IConnector, reporter progress.Reporter) *Loader {
	return &Loader{
		reader:   reader,
		conn:     conn,
		reporter: progress.Safe(reporter),
	}
}

// Run loads every dataset into its table, one transaction per table, in the
// order blocks, transactions, logs, traces. A failing table is rolled back;
// tables committed before it stay committed.
func (l *Loader) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := l.reader.Validate(); err != nil {
		return summary, err
	}

	start := time.Now()
	if err := l.conn.InitSchema(ctx); err != nil {
		return summary, err
	}
	metrics.SchemaInitDuration.Observe(time.Since(start).Seconds())

	for _, table := range common.LoadOrder {
		spec, ok := dataset.SpecFor(dataset.Name(table))
		if !ok {
			return summary, fmt.Errorf("no dataset feeds table %s", table)
		}
		res, err := l.loadTable(ctx, spec)
		if err != nil {
			metrics.TableLoadFailures.WithLabelValues(table.String()).Inc()
			return summary, err
		}
		summary.Tables = append(summary.Tables, res)
	}
	return summary, nil
}

func (l *Loader) loadTable(ctx context.Context, spec dataset.Spec) (res TableResult, err error) {
	table := spec.Name.Table()
	res = TableResult{Table: table, Present: l.reader.Has(spec.Name)}
	start := time.Now()

	var file *dataset.File
	if res.Present {
		if file, err = l.reader.Open(spec.Name); err != nil {
			return res, err
		}
		defer func() {
			if cerr := file.Close(); cerr != nil {
				log.Warn().Err(cerr).Str("table", table.String()).Msg("Failed to close dataset")
			}
		}()
	}

	w, err := l.conn.Begin(ctx, table)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			if rbErr := w.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Str("table", table.String()).Msg("Failed to roll back table load")
			} else {
				log.Warn().Err(err).Str("table", table.String()).Msg("Rolled back table load")
			}
		}
	}()

	var sourceRows int64
	if file != nil {
		sourceRows = file.NumRows()
		l.reporter.Start(table.String(), sourceRows)
		if err = l.stream(ctx, w, file, &res); err != nil {
			return res, err
		}
	} else {
		log.Info().Str("dataset", string(spec.Name)).Msg("Optional dataset not present, recording it as absent")
	}

	err = w.RecordManifest(ctx, storage.ManifestEntry{
		Dataset:        string(spec.Name),
		Present:        res.Present,
		SourceRows:     sourceRows,
		MappingVersion: dataset.MappingVersion,
	})
	if err != nil {
		return res, err
	}
	if err = w.Commit(); err != nil {
		return res, err
	}

	res.Duration = time.Since(start)
	if res.Present {
		l.reporter.Finish(table.String(), res.Inserted, res.Skipped)
	}

	// the table is committed; a failed count only loses the summary figure
	total, countErr := l.conn.Count(ctx, table)
	if countErr != nil {
		log.Warn().Err(countErr).Str("table", table.String()).Msg("Failed to count committed rows")
		res.Total = TotalUnknown
	} else {
		res.Total = total
		metrics.TableRowCount.WithLabelValues(table.String()).Set(float64(res.Total))
	}

	metrics.TableLoadDuration.WithLabelValues(table.String()).Observe(res.Duration.Seconds())
	log.Debug().
		Str("table", table.String()).
		Int64("read", res.Read).
		Int64("inserted", res.Inserted).
		Int64("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("Committed table")
	return res, nil
}

func (l *Loader) stream(ctx context.Context, w storage.ITableWriter, file *dataset.File, res *TableResult) error {
	label := res.Table.String()
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("load of %s interrupted: %w", res.Table, err)
		}

		batch, err := file.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		start := time.Now()
		inserted, err := insertBatch(ctx, w, batch)
		if err != nil {
			return err
		}
		metrics.BatchInsertDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		n := int64(batch.Len())
		res.Read += n
		res.Inserted += inserted
		res.Skipped += n - inserted
		metrics.RowsRead.WithLabelValues(label).Add(float64(n))
		metrics.RowsInserted.WithLabelValues(label).Add(float64(inserted))
		metrics.RowsSkipped.WithLabelValues(label).Add(float64(n - inserted))
		l.reporter.Add(batch.Len())
	}
}
