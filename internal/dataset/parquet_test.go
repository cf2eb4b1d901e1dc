package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParquetFixture(t *testing.T) string {
	t.Helper()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "inn", Type: arrow.BinaryTypes.String},
		{Name: "year", Type: arrow.PrimitiveTypes.Int64},
		{Name: "line_2110", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	b.Field(0).(*array.StringBuilder).AppendValues([]string{"7707083893", "7707083893", "0100000011"}, nil)
	b.Field(1).(*array.Int64Builder).AppendValues([]int64{2021, 2020, 2020}, nil)
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{200, 100, 0}, []bool{true, true, false})

	rec := b.NewRecord()
	defer rec.Release()

	table := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer table.Release()

	path := filepath.Join(t.TempDir(), "rfsd_2020.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, pqarrow.WriteTable(table, f, 1024,
		parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))
	return path
}

func TestLoadParquet(t *testing.T) {
	path := writeParquetFixture(t)

	d, err := LoadParquet(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"inn", "year", "line_2110"}, d.Columns())

	first := d.Row(0)
	assert.Equal(t, "7707083893", first.INN)
	assert.Equal(t, 2021, first.Year)
	rev, ok := first.Float("line_2110")
	require.True(t, ok)
	assert.InDelta(t, 200, rev, 0.001)

	// Parquet nulls stay absent.
	third := d.Row(2)
	assert.Equal(t, "0100000011", third.INN)
	_, ok = third.Float("line_2110")
	assert.False(t, ok)
}

func TestLoadParquetMissingFile(t *testing.T) {
	_, err := LoadParquet(context.Background(), filepath.Join(t.TempDir(), "nope.parquet"))
	assert.ErrorIs(t, err, ErrLoad)
}
