package rfsdclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.True(t, c.Health(context.Background()))
}

func TestHealthDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL)
	assert.False(t, c.Health(context.Background()))

	srv.Close()
	assert.False(t, c.Health(context.Background()))
}

func TestSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rfsd/sample", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		assert.Equal(t, "inn,year", r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(TableResponse{
			Columns: []string{"inn", "year"},
			Rows:    []map[string]any{{"inn": "7707083893", "year": 2020}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Sample(context.Background(), 3, []string{"inn", "year"})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "7707083893", resp.Rows[0]["inn"])
}

func TestCompanyTimeseries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rfsd/company_timeseries", r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "7707083893", payload["inn"])

		json.NewEncoder(w).Encode(TableResponse{
			Rows: []map[string]any{{"year": 2022, "line_2110": 100.0}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.CompanyTimeseries(context.Background(), "7707083893", []int{2022}, nil, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 1)
}

func TestCompanyRevenueTimeseries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RevenueResponse{
			INN:    "7707083893",
			Series: []RevenuePoint{{Year: 2022, Revenue: nil}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.CompanyRevenueTimeseries(context.Background(), "7707083893", nil)
	require.NoError(t, err)
	require.Len(t, resp.Series, 1)
	assert.Nil(t, resp.Series[0].Revenue)
}

func TestExportFullProfileXLSX(t *testing.T) {
	workbook := []byte("PK\x03\x04fake-workbook")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rfsd/export_full_profile_xlsx", r.URL.Path)
		w.Write(workbook)
	}))
	defer srv.Close()

	c := New(srv.URL)
	data, err := c.ExportFullProfileXLSX(context.Background(), "7707083893", []int{2020})
	require.NoError(t, err)
	assert.Equal(t, workbook, data)
}

func TestNotFoundError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "inn 0000000000 not found"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CompanyTimeseries(context.Background(), "0000000000", nil, nil, 0)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "404")

	_, err = c.ExportFullProfileXLSX(context.Background(), "0000000000", nil)
	assert.True(t, IsNotFound(err))
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "сравни с рынком", payload["query"])
		json.NewEncoder(w).Encode(map[string]string{"answer": "выше медианы"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	answer, err := c.Analyze(context.Background(), "сравни с рынком")
	require.NoError(t, err)
	assert.Equal(t, "выше медианы", answer)
}

func TestIsNotFoundOtherErrors(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(&StatusError{StatusCode: http.StatusInternalServerError}))
}
