package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	RowsInserted.WithLabelValues("blocks").Add(3)
	path := filepath.Join(t.TempDir(), "loader.prom")

	require.NoError(t, WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `loader_rows_inserted_total{table="blocks"}`)
}

func TestWriteTextfileWithoutPath(t *testing.T) {
	assert.NoError(t, WriteTextfile(""))
}
