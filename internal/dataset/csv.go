package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// LoadCSV reads a headered CSV file into a Dataset. Cell values are typed by
// shape (empty -> null, numeric -> float64, otherwise string) except the inn
// column, which is kept verbatim to preserve leading zeros.
func LoadCSV(ctx context.Context, path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "open %s: %v", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // validated against the header below

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "read header of %s: %v", path, err)
	}

	innPos := -1
	for i, c := range header {
		if c == model.ColumnINN {
			innPos = i
		}
	}

	var records [][]any
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ErrLoad, "csv %s: %v", path, ctx.Err())
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(ErrLoad, "read %s: %v", path, err)
		}
		if len(rec) != len(header) {
			return nil, eris.Wrapf(ErrLoad, "%s: row %d has %d cells, header has %d",
				path, len(records)+1, len(rec), len(header))
		}
		values := make([]any, len(rec))
		for i, cell := range rec {
			if i == innPos {
				values[i] = cell
				continue
			}
			values[i] = parseCSVValue(cell)
		}
		records = append(records, values)
	}

	rows, err := buildRows(header, records)
	if err != nil {
		return nil, err
	}
	return NewDataset(header, rows)
}
