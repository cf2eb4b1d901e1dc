// Package rfsdclient provides an HTTP client for the RFSD backend API.
package rfsdclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the backend operations the bot consumes.
type Client interface {
	// Health reports whether the backend is serving a snapshot.
	Health(ctx context.Context) bool
	// Sample fetches the first rows of the dataset.
	Sample(ctx context.Context, limit int, fields []string) (*TableResponse, error)
	// CompanyTimeseries fetches a company's statements across years.
	CompanyTimeseries(ctx context.Context, inn string, years []int, fields []string, limit int) (*TableResponse, error)
	// CompanyRevenueTimeseries fetches a company's revenue series.
	CompanyRevenueTimeseries(ctx context.Context, inn string, years []int) (*RevenueResponse, error)
	// ExportFullProfileXLSX fetches the full-profile workbook bytes.
	ExportFullProfileXLSX(ctx context.Context, inn string, years []int) ([]byte, error)
	// Analyze asks the backend analyst a free-form question.
	Analyze(ctx context.Context, query string) (string, error)
}

// TableResponse mirrors the backend's tabular payload.
type TableResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Meta    map[string]any   `json:"meta"`
}

// RevenuePoint is one year of the revenue series.
type RevenuePoint struct {
	Year    int      `json:"year"`
	Revenue *float64 `json:"revenue"`
}

// RevenueResponse mirrors the backend's revenue payload.
type RevenueResponse struct {
	INN    string         `json:"inn"`
	Series []RevenuePoint `json:"series"`
	Meta   map[string]any `json:"meta"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *httpClient) Sample(ctx context.Context, limit int, fields []string) (*TableResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	var out TableResponse
	if err := c.getJSON(ctx, "/rfsd/sample?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CompanyTimeseries(ctx context.Context, inn string, years []int, fields []string, limit int) (*TableResponse, error) {
	payload := map[string]any{"inn": inn}
	if len(years) > 0 {
		payload["years"] = years
	}
	if len(fields) > 0 {
		payload["fields"] = fields
	}
	if limit > 0 {
		payload["limit"] = limit
	}
	var out TableResponse
	if err := c.postJSON(ctx, "/rfsd/company_timeseries", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) CompanyRevenueTimeseries(ctx context.Context, inn string, years []int) (*RevenueResponse, error) {
	payload := map[string]any{"inn": inn}
	if len(years) > 0 {
		payload["years"] = years
	}
	var out RevenueResponse
	if err := c.postJSON(ctx, "/rfsd/company_revenue_timeseries", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ExportFullProfileXLSX(ctx context.Context, inn string, years []int) ([]byte, error) {
	payload := map[string]any{"inn": inn}
	if len(years) > 0 {
		payload["years"] = years
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "rfsdclient: marshal export request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rfsd/export_full_profile_xlsx", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "rfsdclient: build export request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "rfsdclient: export request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "rfsdclient: read workbook")
	}
	return data, nil
}

func (c *httpClient) Analyze(ctx context.Context, query string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.postJSON(ctx, "/rfsd/analyze", map[string]any{"query": query}, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrapf(err, "rfsdclient: build GET %s", path)
	}
	return c.do(req, out)
}

func (c *httpClient) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrapf(err, "rfsdclient: marshal POST %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrapf(err, "rfsdclient: build POST %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "rfsdclient: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrapf(err, "rfsdclient: decode %s", req.URL.Path)
	}
	return nil
}

// StatusError carries the backend's HTTP status so callers can distinguish
// not-found from transport failures.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rfsd backend: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether the error is a backend 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return eris.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return &StatusError{StatusCode: resp.StatusCode, Message: body.Error}
}
