package dataset

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSQLiteFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rfsd.sqlite")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE statements (inn TEXT, year INTEGER, region TEXT, line_2110 REAL)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO statements (inn, year, region, line_2110) VALUES
		('7707083893', 2021, '77', 200),
		('7707083893', 2020, '77', 100),
		('0100000011', 2020, '01', NULL)`)
	require.NoError(t, err)

	return path
}

func TestLoadSQLite(t *testing.T) {
	path := makeSQLiteFixture(t)

	d, err := LoadSQLite(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"inn", "year", "region", "line_2110"}, d.Columns())

	first := d.Row(0)
	assert.Equal(t, "7707083893", first.INN)
	assert.Equal(t, 2021, first.Year)
	rev, ok := first.Float("line_2110")
	require.True(t, ok)
	assert.InDelta(t, 200, rev, 0.001)

	// NULL cells are absent, not zero.
	third := d.Row(2)
	assert.Equal(t, "0100000011", third.INN)
	_, ok = third.Float("line_2110")
	assert.False(t, ok)
}

func TestLoadSQLiteMissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE other (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = LoadSQLite(context.Background(), path)
	assert.ErrorIs(t, err, ErrLoad)
}
