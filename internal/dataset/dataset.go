// Package dataset implements the RFSD data-access core: loading financial
// statement tables from CSV, Parquet, SQLite, or Postgres sources, indexing
// them by company tax identifier, and answering sample and time-series
// queries against an atomically swapped in-memory snapshot.
package dataset

import (
	"github.com/rotisserie/eris"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// requiredColumns must be present in every source for a load to succeed.
var requiredColumns = []string{model.ColumnINN, model.ColumnYear}

// Dataset is an immutable, ordered collection of statement rows plus the
// column set the source declared. Row order is exactly source order.
type Dataset struct {
	rows    []model.StatementRow
	columns []string
}

// NewDataset validates rows against the declared columns and wraps them in
// an immutable Dataset. Validation is all-or-nothing: a single row with a
// non-integer-parseable year fails the whole load. Rows with an empty inn
// are accepted (they stay visible to sampling but are never indexed).
func NewDataset(columns []string, rows []model.StatementRow) (*Dataset, error) {
	colSet := make(map[string]bool, len(columns))
	for _, c := range columns {
		colSet[c] = true
	}
	for _, req := range requiredColumns {
		if !colSet[req] {
			return nil, eris.Wrapf(ErrLoad, "missing required column %q", req)
		}
	}
	for i, r := range rows {
		if r.Year == 0 {
			return nil, eris.Wrapf(ErrLoad, "row %d: missing or unparseable year", i)
		}
	}
	return &Dataset{rows: rows, columns: columns}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the declared column names.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasColumn reports whether the dataset declares the named column. The year
// pseudo-column is always available.
func (d *Dataset) HasColumn(name string) bool {
	if name == model.ColumnYear || name == model.ColumnINN {
		return true
	}
	for _, c := range d.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Row returns a copy of the row at position i.
func (d *Dataset) Row(i int) model.StatementRow {
	return d.rows[i].Clone()
}

// row returns the shared row without copying, for index building and
// internal scans only.
func (d *Dataset) row(i int) model.StatementRow {
	return d.rows[i]
}
