package dataset

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// postgresTable is the table a Postgres source must expose.
const postgresTable = "rfsd_statements"

// Pool is the subset of pgxpool.Pool the loader uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresLoader reads the statements table over a postgres:// connection
// string.
type PostgresLoader struct {
	// connect is swappable for tests.
	connect func(ctx context.Context, dsn string) (Pool, error)
}

// NewPostgresLoader creates a loader that dials with pgxpool.
func NewPostgresLoader() *PostgresLoader {
	return &PostgresLoader{
		connect: func(ctx context.Context, dsn string) (Pool, error) {
			pool, err := pgxpool.New(ctx, dsn)
			if err != nil {
				return nil, err
			}
			return pool, nil
		},
	}
}

// Load reads every statement row in table order.
func (l *PostgresLoader) Load(ctx context.Context, dsn string) (*Dataset, error) {
	pool, err := l.connect(ctx, dsn)
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "postgres connect: %v", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `SELECT * FROM `+pgx.Identifier{postgresTable}.Sanitize())
	if err != nil {
		return nil, eris.Wrapf(ErrLoad, "postgres query: %v", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var records [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(ErrLoad, "postgres scan: %v", err)
		}
		records = append(records, values)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(ErrLoad, "postgres rows: %v", err)
	}

	built, err := buildRows(columns, records)
	if err != nil {
		return nil, err
	}
	return NewDataset(columns, built)
}
