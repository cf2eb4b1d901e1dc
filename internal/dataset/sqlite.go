package dataset

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// sqliteTable is the table a SQLite source must expose. Kept fixed: the
// service reads prepared snapshots, it never owns the schema.
const sqliteTable = "statements"

// LoadSQLite reads the statements table of a SQLite database file into a
// Dataset, preserving the table's row order.
func LoadSQLite(ctx context.Context, path string) (*Dataset, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "sqlite open %s: %v", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT * FROM `+sqliteTable)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "sqlite query %s: %v", path, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "sqlite columns %s: %v", path, err)
	}

	var records [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(ErrLoad, "sqlite scan %s: %v", path, err)
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(ErrLoad, "sqlite rows %s: %v", path, err)
	}

	built, err := buildRows(columns, records)
	if err != nil {
		return nil, err
	}
	return NewDataset(columns, built)
}
