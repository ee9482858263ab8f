package storage

import (
	"fmt"

	"github.com/thirdweb-dev/offline-replay/internal/common"
)

// StorageWriteError reports that the output database could not be created,
// written or committed. The table's transaction has been rolled back.
type StorageWriteError struct {
	Table common.Table
	Op    string
	Err   error
}

func (e *StorageWriteError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s failed for table %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

func writeError(table common.Table, op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageWriteError{Table: table, Op: op, Err: err}
}
