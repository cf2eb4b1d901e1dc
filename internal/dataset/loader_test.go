package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "rfsd_2020.csv",
		"inn,year,region,line_2110\n"+
			"0100000011,2020,01,1500.5\n"+
			"7707083893,2020,77,\n")

	d, err := LoadCSV(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())
	assert.Equal(t, []string{"inn", "year", "region", "line_2110"}, d.Columns())

	first := d.Row(0)
	// Leading zero survives: inn is never parsed as a number.
	assert.Equal(t, "0100000011", first.INN)
	assert.Equal(t, 2020, first.Year)
	rev, ok := first.Float("line_2110")
	require.True(t, ok)
	assert.InDelta(t, 1500.5, rev, 0.001)

	// Empty cell is a null, not a zero.
	second := d.Row(1)
	_, ok = second.Float("line_2110")
	assert.False(t, ok)
}

func TestLoadCSVRaggedRow(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bad.csv",
		"inn,year\n7707083893,2020,extra\n")

	_, err := LoadCSV(context.Background(), path)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadCSVBadYear(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bad.csv",
		"inn,year\n7707083893,twenty-twenty\n")

	_, err := LoadCSV(context.Background(), path)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestSourceLoaderUnsupported(t *testing.T) {
	l := NewSourceLoader()

	_, err := l.Load(context.Background(), "dataset.xlsx")
	assert.ErrorIs(t, err, ErrLoad)

	_, err = l.Load(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrLoad)
}

func TestSourceLoaderCommaList(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "inn,year,line_2110\n7707083893,2020,100\n")
	b := writeCSV(t, dir, "b.csv", "inn,year,line_2400\n7707083893,2021,10\n")

	l := NewSourceLoader()
	d, err := l.Load(context.Background(), a+" , "+b)
	require.NoError(t, err)

	require.Equal(t, 2, d.Len())
	// Column union in first-seen order.
	assert.Equal(t, []string{"inn", "year", "line_2110", "line_2400"}, d.Columns())
	// Part order preserved.
	assert.Equal(t, 2020, d.Row(0).Year)
	assert.Equal(t, 2021, d.Row(1).Year)
}

func TestSourceLoaderDirectory(t *testing.T) {
	dir := t.TempDir()
	// Named so lexical order is year order.
	writeCSV(t, dir, "rfsd_2021.csv", "inn,year\n7707083893,2021\n")
	writeCSV(t, dir, "rfsd_2020.csv", "inn,year\n7707083893,2020\n")
	writeCSV(t, dir, "notes.txt", "ignore me")

	l := NewSourceLoader()
	d, err := l.Load(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, 2, d.Len())
	assert.Equal(t, 2020, d.Row(0).Year)
	assert.Equal(t, 2021, d.Row(1).Year)
}

func TestSourceLoaderEmptyDirectory(t *testing.T) {
	l := NewSourceLoader()
	_, err := l.Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrLoad)
}

func TestSourceLoaderPartFailureFailsWhole(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", "inn,year\n7707083893,2020\n")
	bad := writeCSV(t, dir, "bad.csv", "inn,year\n7707083893,not-a-year\n")

	l := NewSourceLoader()
	_, err := l.Load(context.Background(), good+","+bad)
	assert.ErrorIs(t, err, ErrLoad)
}
