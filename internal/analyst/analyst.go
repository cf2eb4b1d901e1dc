// Package analyst benchmarks a company against its OKVED-section market and
// answers free-form questions about the comparison.
package analyst

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/dataset"
	"github.com/NeuroTechWizards/ai-market/internal/model"
	"github.com/NeuroTechWizards/ai-market/internal/queryparse"
	"github.com/NeuroTechWizards/ai-market/pkg/anthropic"
)

// defaultYears is the benchmark window when the question names no years.
var defaultYears = []int{2020, 2021, 2022, 2023, 2024}

const systemPrompt = "Ты — опытный финансовый аналитик. Твоя задача — проанализировать " +
	"финансовые показатели компании и сравнить их с медианными показателями по отрасли (рынку). " +
	"Стиль: деловой, конкретный, без воды. Сначала факты/цифры, потом выводы."

// BenchmarkYear is one year of company-vs-market comparison.
type BenchmarkYear struct {
	Year          int
	Section       string
	Revenue       *float64
	Profit        *float64
	MarketRevenue *float64 // section median
	MarketProfit  *float64 // section median
	MarketCount   int
}

// Analyst computes benchmarks from engine snapshots and optionally asks
// Claude to narrate them.
type Analyst struct {
	engine    *dataset.Engine
	llm       anthropic.Client // nil: numeric summary only
	model     string
	maxTokens int64
}

// New creates an analyst. llm may be nil, in which case Analyze returns the
// plain benchmark table.
func New(engine *dataset.Engine, llm anthropic.Client, llmModel string, maxTokens int64) *Analyst {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Analyst{engine: engine, llm: llm, model: llmModel, maxTokens: maxTokens}
}

// Analyze extracts the tax identifier and years from the question, builds
// the benchmark, and returns either an LLM narration or the numeric table.
func (a *Analyst) Analyze(ctx context.Context, query string) (string, error) {
	inn := queryparse.ExtractINN(query)
	if inn == "" {
		return "", eris.Wrap(dataset.ErrInvalidArgument, "no inn (10 or 12 digits) in query")
	}
	years := queryparse.ParseYears(query, defaultYears)

	bench, err := a.Benchmark(inn, years)
	if err != nil {
		return "", err
	}
	if len(bench) == 0 {
		return "", eris.Wrapf(dataset.ErrNotFound, "inn %s in years %v", inn, years)
	}

	table := renderBenchmark(inn, bench)
	if a.llm == nil {
		return table, nil
	}

	resp, err := a.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Запрос пользователя: %q\n\nДанные по компании (ИНН %s) и рынку:\n%s", query, inn, table),
		}},
	})
	if err != nil {
		// The benchmark itself is still useful when the LLM is down.
		zap.L().Warn("analyst llm call failed, returning raw benchmark", zap.Error(err))
		return table, nil
	}
	return resp.Text, nil
}

// Benchmark compares the company's revenue and net profit per year with the
// median of its OKVED section. Years the company has no statement for are
// omitted; years where the section is unknown carry no market columns.
func (a *Analyst) Benchmark(inn string, years []int) ([]BenchmarkYear, error) {
	series, err := a.engine.TimeSeries(inn)
	if err != nil {
		return nil, err
	}

	wanted := make(map[int]bool, len(years))
	for _, y := range years {
		wanted[y] = true
	}

	var out []BenchmarkYear
	for _, row := range series {
		if !wanted[row.Year] {
			continue
		}
		b := BenchmarkYear{Year: row.Year, Section: row.String(model.ColumnOKVEDSection)}
		if v, ok := row.Float(model.LineRevenue); ok {
			b.Revenue = &v
		}
		if v, ok := row.Float(model.LineNetProfit); ok {
			b.Profit = &v
		}
		if b.Section != "" {
			stats, err := a.sectionStats(b.Section, row.Year)
			if err != nil {
				return nil, err
			}
			b.MarketRevenue = stats.medianRevenue
			b.MarketProfit = stats.medianProfit
			b.MarketCount = stats.count
		}
		out = append(out, b)
	}
	return out, nil
}

type sectionAggregate struct {
	medianRevenue *float64
	medianProfit  *float64
	count         int
}

// sectionStats scans the snapshot for all companies in a section and year.
func (a *Analyst) sectionStats(section string, year int) (sectionAggregate, error) {
	var revenues, profits []float64
	count := 0
	err := a.engine.Scan(func(row model.StatementRow) bool {
		if row.Year != year || row.String(model.ColumnOKVEDSection) != section {
			return true
		}
		count++
		if v, ok := row.Float(model.LineRevenue); ok {
			revenues = append(revenues, v)
		}
		if v, ok := row.Float(model.LineNetProfit); ok {
			profits = append(profits, v)
		}
		return true
	})
	if err != nil {
		return sectionAggregate{}, err
	}
	return sectionAggregate{
		medianRevenue: median(revenues),
		medianProfit:  median(profits),
		count:         count,
	}, nil
}

func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sort.Float64s(values)
	var m float64
	mid := len(values) / 2
	if len(values)%2 == 1 {
		m = values[mid]
	} else {
		m = (values[mid-1] + values[mid]) / 2
	}
	return &m
}

func renderBenchmark(inn string, bench []BenchmarkYear) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Компания ИНН %s, сравнение с медианой по разделу ОКВЭД:\n", inn)
	sb.WriteString("год | раздел | выручка | прибыль | медиана выручки | медиана прибыли | компаний в разделе\n")
	for _, b := range bench {
		fmt.Fprintf(&sb, "%d | %s | %s | %s | %s | %s | %d\n",
			b.Year, orDash(b.Section),
			fmtFloat(b.Revenue), fmtFloat(b.Profit),
			fmtFloat(b.MarketRevenue), fmtFloat(b.MarketProfit),
			b.MarketCount,
		)
	}
	return sb.String()
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
