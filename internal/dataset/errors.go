package dataset

import (
	"fmt"
	"strings"
)

// MissingDatasetError reports required dataset files absent from the data
// directory.
type MissingDatasetError struct {
	Dir   string
	Files []string
}

func (e *MissingDatasetError) Error() string {
	return fmt.Sprintf("missing dataset file(s) in %s: %s", e.Dir, strings.Join(e.Files, ", "))
}

// SchemaMismatchError reports a column whose declared type conflicts with the
// class the mapping assigns to it.
type SchemaMismatchError struct {
	Dataset  Name
	Column   string
	Expected Class
	Actual   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s.%s: expected %s column, found %s", e.Dataset, e.Column, e.Expected, e.Actual)
}

// ColumnNotFoundError reports an expected field missing from a dataset or
// batch.
type ColumnNotFoundError struct {
	Dataset Name
	Column  string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("%s: column %q not found", e.Dataset, e.Column)
}
