package dataset

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// stubLoader serves canned datasets keyed by source name.
type stubLoader struct {
	mu       sync.Mutex
	datasets map[string]*Dataset
	errs     map[string]error
	calls    int
}

func (l *stubLoader) Load(ctx context.Context, source string) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if err := l.errs[source]; err != nil {
		return nil, err
	}
	d, ok := l.datasets[source]
	if !ok {
		return nil, eris.Wrapf(ErrLoad, "unknown source %s", source)
	}
	return d, nil
}

func testRows() ([]string, []model.StatementRow) {
	columns := []string{"inn", "year", "region", "line_2110"}
	inns := []string{"7707083893", "7736050003", "7707083893", "5036045205", "7707083893"}
	years := []int{2020, 2021, 2019, 2020, 2021}
	revenues := []float64{100, 200, 50, 300, 150}

	rows := make([]model.StatementRow, 0, len(inns))
	for i := range inns {
		rows = append(rows, model.StatementRow{
			INN:  inns[i],
			Year: years[i],
			Fields: map[string]any{
				"inn":       inns[i],
				"year":      years[i],
				"region":    "77",
				"line_2110": revenues[i],
			},
		})
	}
	return columns, rows
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	columns, rows := testRows()
	data, err := NewDataset(columns, rows)
	require.NoError(t, err)

	loader := &stubLoader{datasets: map[string]*Dataset{"test": data}}
	engine := NewEngine(loader)
	require.NoError(t, engine.Load(context.Background(), "test"))
	return engine
}

func TestEngineNotReady(t *testing.T) {
	engine := NewEngine(&stubLoader{})

	assert.False(t, engine.Healthy())

	_, err := engine.Sample(5)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = engine.TimeSeries("7707083893")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = engine.Columns()
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = engine.Size()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEngineSample(t *testing.T) {
	engine := testEngine(t)

	rows, err := engine.Sample(3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Stored order, not sorted.
	assert.Equal(t, "7707083893", rows[0].INN)
	assert.Equal(t, 2020, rows[0].Year)
	assert.Equal(t, "7736050003", rows[1].INN)
	assert.Equal(t, 2021, rows[1].Year)
	assert.Equal(t, "7707083893", rows[2].INN)
	assert.Equal(t, 2019, rows[2].Year)
}

func TestEngineSampleClamp(t *testing.T) {
	engine := testEngine(t)

	rows, err := engine.Sample(100)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestEngineSampleInvalid(t *testing.T) {
	engine := testEngine(t)

	for _, n := range []int{0, -1, -100} {
		_, err := engine.Sample(n)
		assert.ErrorIs(t, err, ErrInvalidArgument, "n=%d", n)
	}
}

func TestEngineTimeSeries(t *testing.T) {
	engine := testEngine(t)

	rows, err := engine.TimeSeries("7707083893")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Year ascending regardless of stored order.
	assert.Equal(t, []int{2019, 2020, 2021}, []int{rows[0].Year, rows[1].Year, rows[2].Year})

	rev, ok := rows[0].Float("line_2110")
	require.True(t, ok)
	assert.InDelta(t, 50, rev, 0.001)
}

func TestEngineTimeSeriesNotFound(t *testing.T) {
	engine := testEngine(t)

	_, err := engine.TimeSeries("0000000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngineTimeSeriesEmptyINNNotIndexed(t *testing.T) {
	columns := []string{"inn", "year"}
	rows := []model.StatementRow{
		{INN: "", Year: 2020, Fields: map[string]any{"inn": nil, "year": 2020}},
		{INN: "7707083893", Year: 2020, Fields: map[string]any{"inn": "7707083893", "year": 2020}},
	}
	data, err := NewDataset(columns, rows)
	require.NoError(t, err)

	loader := &stubLoader{datasets: map[string]*Dataset{"test": data}}
	engine := NewEngine(loader)
	require.NoError(t, engine.Load(context.Background(), "test"))

	// The anonymous row is still sampleable.
	sampled, err := engine.Sample(2)
	require.NoError(t, err)
	assert.Len(t, sampled, 2)

	// But not reachable by lookup.
	_, err = engine.TimeSeries("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngineReturnsCopies(t *testing.T) {
	engine := testEngine(t)

	rows, err := engine.Sample(1)
	require.NoError(t, err)
	rows[0].Fields["line_2110"] = float64(-1)

	again, err := engine.Sample(1)
	require.NoError(t, err)
	rev, ok := again[0].Float("line_2110")
	require.True(t, ok)
	assert.InDelta(t, 100, rev, 0.001)
}

func TestEngineReloadKeepsSnapshotOnFailure(t *testing.T) {
	columns, rows := testRows()
	data, err := NewDataset(columns, rows)
	require.NoError(t, err)

	loader := &stubLoader{
		datasets: map[string]*Dataset{"good": data},
		errs:     map[string]error{"bad": eris.Wrap(ErrLoad, "boom")},
	}
	engine := NewEngine(loader)
	require.NoError(t, engine.Load(context.Background(), "good"))

	err = engine.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrLoad)

	// Previous snapshot still serves.
	assert.True(t, engine.Healthy())
	size, err := engine.Size()
	require.NoError(t, err)
	assert.Equal(t, 5, size)
}

func TestEngineReloadSwapsAtomically(t *testing.T) {
	columns, rows := testRows()
	first, err := NewDataset(columns, rows)
	require.NoError(t, err)

	second, err := NewDataset(columns, rows[:2])
	require.NoError(t, err)

	loader := &stubLoader{datasets: map[string]*Dataset{"a": first, "b": second}}
	engine := NewEngine(loader)
	require.NoError(t, engine.Load(context.Background(), "a"))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				size, err := engine.Size()
				if err != nil {
					t.Error(err)
					return
				}
				// Every read sees a complete generation.
				if size != 5 && size != 2 {
					t.Errorf("unexpected snapshot size %d", size)
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		src := "a"
		if i%2 == 0 {
			src = "b"
		}
		require.NoError(t, engine.Load(context.Background(), src))
	}
	close(stop)
	wg.Wait()
}

func TestEngineScan(t *testing.T) {
	engine := testEngine(t)

	var seen int
	err := engine.Scan(func(row model.StatementRow) bool {
		seen++
		return seen < 3
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
}
