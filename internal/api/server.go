// Package api is the HTTP facade over the RFSD query engine: health,
// sampling, company time series, XLSX exports, analyst queries, and reload.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/NeuroTechWizards/ai-market/internal/databook"
	"github.com/NeuroTechWizards/ai-market/internal/dataset"
)

// Analyst answers free-form benchmark questions. Optional; the endpoint
// returns 503 when no analyst is configured.
type Analyst interface {
	Analyze(ctx context.Context, query string) (string, error)
}

// Server wires the query engine and its collaborators into HTTP handlers.
type Server struct {
	engine  *dataset.Engine
	book    *databook.Databook
	analyst Analyst

	source         string // dataset source, re-read on reload
	sampleLimitMax int
}

// Option configures the server.
type Option func(*Server)

// WithDatabook attaches the indicator dictionary used by profile exports.
func WithDatabook(book *databook.Databook) Option {
	return func(s *Server) { s.book = book }
}

// WithAnalyst enables the /rfsd/analyze endpoint.
func WithAnalyst(a Analyst) Option {
	return func(s *Server) { s.analyst = a }
}

// WithSampleLimitMax overrides the sample endpoint's limit cap.
func WithSampleLimitMax(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sampleLimitMax = n
		}
	}
}

// NewServer creates the facade. source is the dataset location used when a
// reload is requested.
func NewServer(engine *dataset.Engine, source string, opts ...Option) *Server {
	s := &Server{
		engine:         engine,
		book:           databook.Empty(),
		source:         source,
		sampleLimitMax: 100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi handler with CORS, request ids, and request logging.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/rfsd", func(r chi.Router) {
		r.Get("/sample", s.handleSample)
		r.Post("/company_timeseries", s.handleTimeseries)
		r.Post("/company_revenue_timeseries", s.handleRevenueTimeseries)
		r.Post("/export_company_revenue_xlsx", s.handleExportRevenue)
		r.Post("/export_full_profile_xlsx", s.handleExportProfile)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/reload", s.handleReload)
	})

	return r
}

// writeJSON serializes a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

// writeError maps core error kinds onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dataset.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, dataset.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dataset.ErrNotReady):
		status = http.StatusServiceUnavailable
	case errors.Is(err, dataset.ErrLoad):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
