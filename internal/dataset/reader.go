package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
	"github.com/rs/zerolog/log"
)

const DefaultBatchSize = 8192

type Options struct {
	BatchSize int
}

// Reader gives access to the columnar datasets of one snapshot directory.
type Reader struct {
	dir       string
	batchSize int
	present   map[Name]bool
}

// Open checks that every required dataset exists under dir. Optional datasets
// that are absent are recorded as such, never treated as malformed.
func Open(dir string, opts Options) (*Reader, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	r := &Reader{
		dir:       dir,
		batchSize: batchSize,
		present:   make(map[Name]bool, len(Specs)),
	}

	var missing []string
	for _, spec := range Specs {
		path := r.Path(spec.Name)
		info, err := os.Stat(path)
		switch {
		case err == nil && !info.IsDir():
			r.present[spec.Name] = true
		case err == nil || errors.Is(err, fs.ErrNotExist):
			if spec.Required {
				missing = append(missing, path)
			} else {
				log.Debug().Str("dataset", string(spec.Name)).Msg("Optional dataset not present")
			}
		default:
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingDatasetError{Dir: dir, Files: missing}
	}
	return r, nil
}

func (r *Reader) Dir() string {
	return r.dir
}

func (r *Reader) Path(name Name) string {
	return filepath.Join(r.dir, name.FileName())
}

// Has reports whether the dataset file exists in the snapshot.
func (r *Reader) Has(name Name) bool {
	return r.present[name]
}

// Validate opens every present dataset and checks its schema against the
// column mapping without reading any rows.
func (r *Reader) Validate() error {
	for _, spec := range Specs {
		if !r.Has(spec.Name) {
			continue
		}
		f, err := r.Open(spec.Name)
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Open opens one dataset for streaming.
func (r *Reader) Open(name Name) (*File, error) {
	spec, ok := SpecFor(name)
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	if !r.Has(name) {
		return nil, &MissingDatasetError{Dir: r.dir, Files: []string{r.Path(name)}}
	}
	return openFile(spec, r.Path(name), r.batchSize)
}

type rowReader interface {
	ReadRows([]parquet.Row) (int, error)
	Close() error
}

// File streams the rows of one dataset as batches.
type File struct {
	spec      Spec
	path      string
	file      *os.File
	pf        *parquet.File
	batchSize int

	// slots maps a parquet leaf column index to its position in the batch,
	// -1 for columns the loader does not read.
	slots   []int
	scratch []parquet.Value
	buf     []parquet.Row

	rowGroups []parquet.RowGroup
	next      int
	rows      rowReader
}

func openFile(spec Spec, path string, batchSize int) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read parquet file %s: %w", path, err)
	}

	slots, err := bindColumns(spec, pFile.Schema())
	if err != nil {
		file.Close()
		return nil, err
	}

	log.Debug().
		Str("file", path).
		Int("row_groups", len(pFile.RowGroups())).
		Int64("rows", pFile.NumRows()).
		Msg("Opened dataset")

	return &File{
		spec:      spec,
		path:      path,
		file:      file,
		pf:        pFile,
		batchSize: batchSize,
		slots:     slots,
		scratch:   make([]parquet.Value, len(spec.Fields)),
		buf:       make([]parquet.Row, batchSize),
		rowGroups: pFile.RowGroups(),
	}, nil
}

// bindColumns resolves every expected field to a leaf column and checks its
// declared type against the field's class.
func bindColumns(spec Spec, schema *parquet.Schema) ([]int, error) {
	slots := make([]int, len(schema.Columns()))
	for i := range slots {
		slots[i] = -1
	}

	for pos, field := range spec.Fields {
		leaf, ok := schema.Lookup(field.Name)
		if !ok {
			return nil, &ColumnNotFoundError{Dataset: spec.Name, Column: field.Name}
		}
		if leaf.MaxRepetitionLevel > 0 {
			return nil, &SchemaMismatchError{
				Dataset:  spec.Name,
				Column:   field.Name,
				Expected: field.Class,
				Actual:   "repeated " + leaf.Node.Type().String(),
			}
		}
		if err := checkClass(spec.Name, field, leaf.Node.Type()); err != nil {
			return nil, err
		}
		slots[leaf.ColumnIndex] = pos
	}
	return slots, nil
}

func isString(t parquet.Type) bool {
	if lt := t.LogicalType(); lt != nil && lt.UTF8 != nil {
		return true
	}
	if ct := t.ConvertedType(); ct != nil && *ct == deprecated.UTF8 {
		return true
	}
	return false
}

func checkClass(name Name, field Field, t parquet.Type) error {
	compatible := false
	switch field.Class {
	case ClassInteger:
		kind := t.Kind()
		if kind == parquet.Int64 || kind == parquet.Int32 {
			lt := t.LogicalType()
			compatible = lt == nil || (lt.Integer != nil && lt.Integer.IsSigned)
		}
	case ClassText:
		compatible = t.Kind() == parquet.ByteArray && isString(t)
	case ClassBinary:
		compatible = t.Kind() == parquet.ByteArray && !isString(t)
	}
	if !compatible {
		return &SchemaMismatchError{
			Dataset:  name,
			Column:   field.Name,
			Expected: field.Class,
			Actual:   t.String(),
		}
	}
	return nil
}

func (f *File) Name() Name {
	return f.spec.Name
}

// NumRows is the row count declared in the file footer.
func (f *File) NumRows() int64 {
	return f.pf.NumRows()
}

// Next returns the next batch of at most BatchSize rows, or io.EOF once the
// dataset is exhausted. Batches may span row groups.
func (f *File) Next() (*Batch, error) {
	batch := newBatch(f.spec.Name, f.spec.Fields, f.batchSize)

	for batch.Len() < f.batchSize {
		if f.rows == nil {
			if f.next >= len(f.rowGroups) {
				break
			}
			f.rows = parquet.NewRowGroupReader(f.rowGroups[f.next])
			f.next++
		}

		n, err := f.rows.ReadRows(f.buf[:f.batchSize-batch.Len()])
		for i := 0; i < n; i++ {
			f.appendRow(batch, f.buf[i])
		}

		if err == io.EOF || (err == nil && n == 0) {
			if cerr := f.rows.Close(); cerr != nil {
				log.Warn().Err(cerr).Str("file", f.path).Msg("Failed to close row group reader")
			}
			f.rows = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from %s: %w", f.path, err)
		}
	}

	if batch.Len() == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (f *File) appendRow(batch *Batch, row parquet.Row) {
	for i := range f.scratch {
		f.scratch[i] = parquet.Value{}
	}
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(f.slots) {
			continue
		}
		if pos := f.slots[col]; pos >= 0 {
			f.scratch[pos] = v
		}
	}
	batch.appendRow(f.scratch)
}

func (f *File) Close() error {
	if f.rows != nil {
		f.rows.Close()
		f.rows = nil
	}
	return f.file.Close()
}
