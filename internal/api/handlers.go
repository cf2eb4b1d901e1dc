package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/dataset"
	"github.com/NeuroTechWizards/ai-market/internal/export"
	"github.com/NeuroTechWizards/ai-market/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSample returns the first rows of the dataset with an optional column
// projection: GET /rfsd/sample?limit=5&fields=inn,year.
func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	limit := defaultSampleLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, eris.Wrapf(dataset.ErrInvalidArgument, "limit %q", raw))
			return
		}
		limit = n
	}
	if limit > s.sampleLimitMax {
		limit = s.sampleLimitMax
	}

	fields := []string{model.ColumnINN, model.ColumnYear}
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = splitFields(raw)
	}

	rows, err := s.engine.Sample(limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := SampleResponse{Columns: fields, Rows: make([]map[string]any, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, row.Project(fields))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTimeseries returns a company's statements across the requested
// years, projected onto the requested fields.
func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	var req TimeseriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "invalid request body"))
		return
	}
	if req.INN == "" {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "inn is required"))
		return
	}

	years := req.Years
	if len(years) == 0 {
		years = defaultTimeseriesYears
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultTimeseriesLimit
	}
	if limit < 0 || limit > maxTimeseriesLimit {
		writeError(w, eris.Wrapf(dataset.ErrInvalidArgument, "limit %d out of range 1-%d", limit, maxTimeseriesLimit))
		return
	}

	fields := req.Fields
	if len(fields) == 0 {
		fields = append([]string(nil), model.DefaultFields...)
	}
	// Multiple years need the year column to stay distinguishable.
	if len(years) > 1 && !contains(fields, model.ColumnYear) {
		fields = append(fields, model.ColumnYear)
	}

	fields, dropped, err := s.validFields(fields)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	series, err := s.engine.TimeSeries(req.INN)
	if err != nil {
		writeError(w, err)
		return
	}
	matched := filterYears(series, years)
	if len(matched) > limit {
		matched = matched[:limit]
	}

	resp := TableResponse{
		Columns: fields,
		Rows:    make([]map[string]any, 0, len(matched)),
		Meta: Meta{
			YearsScanned:  years,
			MatchedRows:   len(matched),
			ElapsedMS:     elapsedMS(start),
			DroppedFields: dropped,
		},
	}
	for _, row := range matched {
		resp.Rows = append(resp.Rows, row.Project(fields))
	}

	zap.L().Info("company timeseries",
		zap.String("inn", req.INN),
		zap.Ints("years", years),
		zap.Int("matched_rows", len(matched)),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevenueTimeseries(w http.ResponseWriter, r *http.Request) {
	var req RevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "invalid request body"))
		return
	}
	if req.INN == "" {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "inn is required"))
		return
	}
	years := normalizeYears(req.Years, defaultRevenueYears)

	start := time.Now()
	series, err := s.revenueSeries(req.INN, years)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RevenueResponse{
		INN:    req.INN,
		Series: series,
		Meta: Meta{
			YearsScanned: years,
			MatchedRows:  len(series),
			ElapsedMS:    elapsedMS(start),
		},
	})
}

func (s *Server) handleExportRevenue(w http.ResponseWriter, r *http.Request) {
	var req RevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "invalid request body"))
		return
	}
	if req.INN == "" {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "inn is required"))
		return
	}
	years := normalizeYears(req.Years, defaultRevenueYears)

	series, err := s.revenueSeries(req.INN, years)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRevenue(&buf, req.INN, series); err != nil {
		writeError(w, err)
		return
	}
	writeWorkbook(w, fmt.Sprintf("rfsd_revenue_%s.xlsx", req.INN), buf.Bytes())
}

func (s *Server) handleExportProfile(w http.ResponseWriter, r *http.Request) {
	var req RevenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "invalid request body"))
		return
	}
	if req.INN == "" {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "inn is required"))
		return
	}
	years := normalizeYears(req.Years, defaultRevenueYears)

	series, err := s.engine.TimeSeries(req.INN)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := filterYears(series, years)
	if len(rows) == 0 {
		writeError(w, eris.Wrapf(dataset.ErrNotFound, "inn %s in years %v", req.INN, years))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteFullProfile(&buf, req.INN, years, rows, s.book); err != nil {
		writeError(w, err)
		return
	}
	writeWorkbook(w, fmt.Sprintf("rfsd_profile_%s.xlsx", req.INN), buf.Bytes())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyst == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "analyst is not configured"})
		return
	}
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		writeError(w, eris.Wrap(dataset.ErrInvalidArgument, "query is required"))
		return
	}
	answer, err := s.analyst.Analyze(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Answer: answer})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Load(r.Context(), s.source); err != nil {
		writeError(w, err)
		return
	}
	size, err := s.engine.Size()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{Status: "reloaded", Rows: size})
}

// revenueSeries picks, for each requested year, the company's first
// statement of that year and extracts the revenue line. Years without a
// statement are omitted.
func (s *Server) revenueSeries(inn string, years []int) ([]export.RevenuePoint, error) {
	series, err := s.engine.TimeSeries(inn)
	if err != nil {
		return nil, err
	}

	byYear := make(map[int]model.StatementRow, len(series))
	for _, row := range series {
		if _, ok := byYear[row.Year]; !ok {
			byYear[row.Year] = row
		}
	}

	out := make([]export.RevenuePoint, 0, len(years))
	for _, y := range years {
		row, ok := byYear[y]
		if !ok {
			continue
		}
		p := export.RevenuePoint{Year: y}
		if v, ok := row.Float(model.LineRevenue); ok {
			p.Revenue = &v
		}
		out = append(out, p)
	}
	return out, nil
}

// validFields drops requested fields the active snapshot does not declare.
func (s *Server) validFields(fields []string) (valid, dropped []string, err error) {
	for _, f := range fields {
		ok, err := s.engine.HasColumn(f)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			valid = append(valid, f)
		} else {
			dropped = append(dropped, f)
		}
	}
	return valid, dropped, nil
}

func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		zap.L().Error("write workbook response", zap.Error(err))
	}
}

func filterYears(rows []model.StatementRow, years []int) []model.StatementRow {
	want := make(map[int]bool, len(years))
	for _, y := range years {
		want[y] = true
	}
	var out []model.StatementRow
	for _, r := range rows {
		if want[r.Year] {
			out = append(out, r)
		}
	}
	return out
}

func normalizeYears(years, fallback []int) []int {
	if len(years) == 0 {
		return fallback
	}
	out := append([]int(nil), years...)
	sort.Ints(out)
	return out
}

func splitFields(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
