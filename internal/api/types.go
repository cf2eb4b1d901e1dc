package api

import "github.com/NeuroTechWizards/ai-market/internal/export"

// Default query windows, matching what the service advertised historically.
var (
	defaultTimeseriesYears = []int{2022, 2023, 2024}
	defaultRevenueYears    = []int{2019, 2020, 2021, 2022, 2023}
)

const (
	defaultSampleLimit     = 5
	defaultTimeseriesLimit = 200
	maxTimeseriesLimit     = 1000
)

// TimeseriesRequest asks for a company's statements across years.
type TimeseriesRequest struct {
	INN    string   `json:"inn"`
	Years  []int    `json:"years,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Limit  int      `json:"limit,omitempty"`
}

// RevenueRequest asks for a company's revenue series.
type RevenueRequest struct {
	INN   string `json:"inn"`
	Years []int  `json:"years,omitempty"`
}

// AnalyzeRequest carries a free-form analyst question.
type AnalyzeRequest struct {
	Query string `json:"query"`
}

// Meta describes how a query was answered.
type Meta struct {
	YearsScanned  []int    `json:"years_scanned"`
	MatchedRows   int      `json:"matched_rows"`
	ElapsedMS     float64  `json:"elapsed_ms"`
	DroppedFields []string `json:"dropped_fields,omitempty"`
}

// TableResponse is the generic tabular payload.
type TableResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Meta    Meta             `json:"meta"`
}

// SampleResponse holds a deterministic dataset sample.
type SampleResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RevenueResponse holds a company's revenue series.
type RevenueResponse struct {
	INN    string                `json:"inn"`
	Series []export.RevenuePoint `json:"series"`
	Meta   Meta                  `json:"meta"`
}

// AnalyzeResponse holds the analyst's answer.
type AnalyzeResponse struct {
	Answer string `json:"answer"`
}

// ReloadResponse reports a completed snapshot reload.
type ReloadResponse struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}
