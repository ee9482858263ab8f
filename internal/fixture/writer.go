package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

var writerOptions = []parquet.WriterOption{
	parquet.Compression(&parquet.Zstd),
	parquet.DataPageStatistics(true),
}

type WriteOptions struct {
	// RowGroupSize splits each file into row groups of at most this many
	// rows; zero writes a single row group.
	RowGroupSize int
}

// Write materialises ds as blocks.parquet, transactions.parquet, logs.parquet
// and, when ds has traces, traces.parquet under dir.
func Write(dir string, ds Dataset, opts WriteOptions) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := WriteRows(filepath.Join(dir, "blocks.parquet"), ds.Blocks, opts.RowGroupSize); err != nil {
		return err
	}
	if err := WriteRows(filepath.Join(dir, "transactions.parquet"), ds.Transactions, opts.RowGroupSize); err != nil {
		return err
	}
	if err := WriteLogs(filepath.Join(dir, "logs.parquet"), ds.Logs, opts.RowGroupSize); err != nil {
		return err
	}
	if len(ds.Traces) > 0 {
		if err := WriteRows(filepath.Join(dir, "traces.parquet"), ds.Traces, opts.RowGroupSize); err != nil {
			return err
		}
	}
	return nil
}

type rowWriter[T any] interface {
	Write([]T) (int, error)
	Flush() error
	Close() error
}

// WriteRows writes rows to a parquet file whose schema is derived from T.
func WriteRows[T any](path string, rows []T, rowGroupSize int) error {
	return writeFile(path, rows, rowGroupSize, func(file *os.File) rowWriter[T] {
		return parquet.NewGenericWriter[T](file, writerOptions...)
	})
}

// LogsSchema is the producer's logs layout. Struct tags cannot express an
// optional byte array that keeps its payload, so the schema is declared.
var LogsSchema = parquet.NewSchema("logs", parquet.Group{
	"id":           parquet.Int(64),
	"block_number": parquet.Int(64),
	"tx_hash":      parquet.String(),
	"log_index":    parquet.Int(64),
	"address":      parquet.String(),
	"topic0":       parquet.Optional(parquet.String()),
	"topic1":       parquet.Optional(parquet.String()),
	"topic2":       parquet.Optional(parquet.String()),
	"topic3":       parquet.Optional(parquet.String()),
	"data":         parquet.Optional(parquet.Leaf(parquet.ByteArrayType)),
})

// WriteLogs writes log rows cell by cell against LogsSchema.
func WriteLogs(path string, logs []LogRow, rowGroupSize int) error {
	rows := make([]parquet.Row, len(logs))
	for i, l := range logs {
		rows[i] = buildRow(LogsSchema, map[string]parquet.Value{
			"id":           parquet.Int64Value(l.ID),
			"block_number": parquet.Int64Value(l.BlockNumber),
			"tx_hash":      parquet.ByteArrayValue([]byte(l.TxHash)),
			"log_index":    parquet.Int64Value(l.LogIndex),
			"address":      parquet.ByteArrayValue([]byte(l.Address)),
			"topic0":       optText(l.Topic0),
			"topic1":       optText(l.Topic1),
			"topic2":       optText(l.Topic2),
			"topic3":       optText(l.Topic3),
			"data":         optBytes(l.Data),
		})
	}
	return writeFile(path, rows, rowGroupSize, func(file *os.File) rowWriter[parquet.Row] {
		return &schemaWriter{parquet.NewWriter(file, append([]parquet.WriterOption{LogsSchema}, writerOptions...)...)}
	})
}

type schemaWriter struct {
	*parquet.Writer
}

func (w *schemaWriter) Write(rows []parquet.Row) (int, error) {
	return w.Writer.WriteRows(rows)
}

func optText(s *string) parquet.Value {
	if s == nil {
		return parquet.Value{}
	}
	return parquet.ByteArrayValue([]byte(*s))
}

func optBytes(b []byte) parquet.Value {
	if b == nil {
		return parquet.Value{}
	}
	return parquet.ByteArrayValue(b)
}

// buildRow places each named cell at its leaf column with the levels the
// schema requires. Missing or null cells are written as nulls.
func buildRow(schema *parquet.Schema, cells map[string]parquet.Value) parquet.Row {
	columns := schema.Columns()
	row := make(parquet.Row, len(columns))
	for i, path := range columns {
		leaf, _ := schema.Lookup(path...)
		v, ok := cells[path[len(path)-1]]
		if !ok || v.IsNull() {
			row[i] = parquet.Value{}.Level(0, 0, i)
			continue
		}
		row[i] = v.Level(0, leaf.MaxDefinitionLevel, i)
	}
	return row
}

func writeFile[T any](path string, rows []T, rowGroupSize int, newWriter func(*os.File) rowWriter[T]) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}

	writer := newWriter(file)
	if rowGroupSize <= 0 {
		rowGroupSize = len(rows)
	}
	for start := 0; start < len(rows); start += rowGroupSize {
		end := min(start+rowGroupSize, len(rows))
		if _, err := writer.Write(rows[start:end]); err != nil {
			file.Close()
			return fmt.Errorf("failed to write parquet data: %w", err)
		}
		if err := writer.Flush(); err != nil {
			file.Close()
			return fmt.Errorf("failed to flush row group: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close parquet file: %w", err)
	}
	return nil
}
