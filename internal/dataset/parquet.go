package dataset

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/rotisserie/eris"
)

// LoadParquet reads a Parquet file (one RFSD year partition) into a Dataset.
// Column types outside the handled Arrow set decode to nulls rather than
// failing the load, since the core treats financial fields opaquely anyway.
func LoadParquet(ctx context.Context, path string) (*Dataset, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "open parquet %s: %v", path, err)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: 64 * 1024}, memory.DefaultAllocator)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "parquet reader %s: %v", path, err)
	}

	table, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "read parquet %s: %v", path, err)
	}
	defer table.Release()

	numRows := int(table.NumRows())
	numCols := int(table.NumCols())

	columns := make([]string, numCols)
	values := make([][]any, numCols)
	for i := 0; i < numCols; i++ {
		columns[i] = table.Schema().Field(i).Name
		colVals := make([]any, 0, numRows)
		for _, chunk := range table.Column(i).Data().Chunks() {
			colVals = appendChunk(colVals, chunk)
		}
		values[i] = colVals
	}

	records := make([][]any, numRows)
	for r := 0; r < numRows; r++ {
		rec := make([]any, numCols)
		for c := 0; c < numCols; c++ {
			rec[c] = values[c][r]
		}
		records[r] = rec
	}

	rows, err := buildRows(columns, records)
	if err != nil {
		return nil, err
	}
	return NewDataset(columns, rows)
}

// appendChunk decodes one Arrow chunk into Go values, null-preserving.
func appendChunk(dst []any, chunk arrowArray) []any {
	switch col := chunk.(type) {
	case *array.Float64:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), col.Value(i)))
		}
	case *array.Float32:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), float64(col.Value(i))))
		}
	case *array.Int64:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), int(col.Value(i))))
		}
	case *array.Int32:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), int(col.Value(i))))
		}
	case *array.String:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), col.Value(i)))
		}
	case *array.LargeString:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), col.Value(i)))
		}
	case *array.Boolean:
		for i := 0; i < col.Len(); i++ {
			dst = append(dst, nullable(col.IsNull(i), col.Value(i)))
		}
	default:
		for i := 0; i < chunk.Len(); i++ {
			dst = append(dst, nil)
		}
	}
	return dst
}

// arrowArray is the subset of arrow.Array appendChunk relies on.
type arrowArray interface {
	Len() int
	IsNull(i int) bool
}

func nullable(isNull bool, v any) any {
	if isNull {
		return nil
	}
	return v
}
