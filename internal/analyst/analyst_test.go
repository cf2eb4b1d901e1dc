package analyst

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeuroTechWizards/ai-market/internal/dataset"
	"github.com/NeuroTechWizards/ai-market/internal/model"
	"github.com/NeuroTechWizards/ai-market/pkg/anthropic"
)

type fixtureLoader struct {
	data *dataset.Dataset
}

func (l *fixtureLoader) Load(ctx context.Context, source string) (*dataset.Dataset, error) {
	return l.data, nil
}

func benchEngine(t *testing.T) *dataset.Engine {
	t.Helper()
	columns := []string{"inn", "year", "okved_section", "line_2110", "line_2400"}

	type rec struct {
		inn     string
		year    int
		section string
		revenue float64
		profit  float64
	}
	// Section J in 2022: revenues 100, 200, 300 -> median 200.
	recs := []rec{
		{"7707083893", 2022, "J", 100, 10},
		{"7736050003", 2022, "J", 200, 20},
		{"5036045205", 2022, "J", 300, 30},
		{"1234567890", 2022, "C", 900, 90},
		{"7707083893", 2021, "J", 80, 8},
		{"7736050003", 2021, "J", 160, 16},
	}

	rows := make([]model.StatementRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, model.StatementRow{
			INN:  r.inn,
			Year: r.year,
			Fields: map[string]any{
				"okved_section": r.section,
				"line_2110":     r.revenue,
				"line_2400":     r.profit,
			},
		})
	}
	d, err := dataset.NewDataset(columns, rows)
	require.NoError(t, err)

	engine := dataset.NewEngine(&fixtureLoader{data: d})
	require.NoError(t, engine.Load(context.Background(), "fixture"))
	return engine
}

func TestBenchmark(t *testing.T) {
	a := New(benchEngine(t), nil, "", 0)

	bench, err := a.Benchmark("7707083893", []int{2021, 2022})
	require.NoError(t, err)
	require.Len(t, bench, 2)

	// Year ascending from the engine.
	b2021 := bench[0]
	assert.Equal(t, 2021, b2021.Year)
	assert.Equal(t, "J", b2021.Section)
	require.NotNil(t, b2021.MarketRevenue)
	assert.InDelta(t, 120, *b2021.MarketRevenue, 0.001) // even count: (80+160)/2
	assert.Equal(t, 2, b2021.MarketCount)

	b2022 := bench[1]
	require.NotNil(t, b2022.Revenue)
	assert.InDelta(t, 100, *b2022.Revenue, 0.001)
	require.NotNil(t, b2022.MarketRevenue)
	assert.InDelta(t, 200, *b2022.MarketRevenue, 0.001)
	require.NotNil(t, b2022.MarketProfit)
	assert.InDelta(t, 20, *b2022.MarketProfit, 0.001)
	// The C-section company is excluded from the J market.
	assert.Equal(t, 3, b2022.MarketCount)
}

func TestBenchmarkYearFilter(t *testing.T) {
	a := New(benchEngine(t), nil, "", 0)

	bench, err := a.Benchmark("7707083893", []int{2019})
	require.NoError(t, err)
	assert.Empty(t, bench)
}

func TestAnalyzeWithoutLLM(t *testing.T) {
	a := New(benchEngine(t), nil, "", 0)

	answer, err := a.Analyze(context.Background(), "сравни 7707083893 с рынком за 2021-2022")
	require.NoError(t, err)
	assert.Contains(t, answer, "7707083893")
	assert.Contains(t, answer, "медиан")
	assert.Contains(t, answer, "2022 | J | 100 | 10 | 200 | 20 | 3")
}

func TestAnalyzeNoINN(t *testing.T) {
	a := New(benchEngine(t), nil, "", 0)

	_, err := a.Analyze(context.Background(), "сравни компанию с рынком")
	assert.ErrorIs(t, err, dataset.ErrInvalidArgument)
}

func TestAnalyzeUnknownINN(t *testing.T) {
	a := New(benchEngine(t), nil, "", 0)

	_, err := a.Analyze(context.Background(), "сравни 9999999999 с рынком")
	assert.ErrorIs(t, err, dataset.ErrNotFound)
}

// scriptedLLM captures the request and returns a fixed narration.
type scriptedLLM struct {
	req  anthropic.MessageRequest
	text string
	err  error
}

func (l *scriptedLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	l.req = req
	if l.err != nil {
		return nil, l.err
	}
	return &anthropic.MessageResponse{Text: l.text}, nil
}

func TestAnalyzeWithLLM(t *testing.T) {
	llm := &scriptedLLM{text: "Выручка компании ниже медианы раздела J."}
	a := New(benchEngine(t), llm, "claude-sonnet-4-5-20250929", 2048)

	answer, err := a.Analyze(context.Background(), "сравни 7707083893 с рынком за 2022")
	require.NoError(t, err)
	assert.Equal(t, "Выручка компании ниже медианы раздела J.", answer)

	assert.Equal(t, "claude-sonnet-4-5-20250929", llm.req.Model)
	assert.EqualValues(t, 2048, llm.req.MaxTokens)
	require.Len(t, llm.req.Messages, 1)
	assert.Contains(t, llm.req.Messages[0].Content, "7707083893")
}

func TestAnalyzeLLMFailureFallsBack(t *testing.T) {
	llm := &scriptedLLM{err: eris.New("overloaded")}
	a := New(benchEngine(t), llm, "claude-sonnet-4-5-20250929", 0)

	answer, err := a.Analyze(context.Background(), "сравни 7707083893 с рынком за 2022")
	require.NoError(t, err)
	assert.Contains(t, answer, "медиан")
}

func TestMedian(t *testing.T) {
	assert.Nil(t, median(nil))

	odd := median([]float64{3, 1, 2})
	require.NotNil(t, odd)
	assert.InDelta(t, 2, *odd, 0.001)

	even := median([]float64{4, 1, 3, 2})
	require.NotNil(t, even)
	assert.InDelta(t, 2.5, *even, 0.001)
}
