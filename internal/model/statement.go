package model

import (
	"strconv"
)

// Well-known RFSD column names. Financial statement lines follow the Russian
// accounting form codes ("line_2110" is revenue, "line_2400" net profit).
const (
	ColumnINN           = "inn"
	ColumnYear          = "year"
	ColumnRegion        = "region"
	ColumnOKVED         = "okved"
	ColumnOKVEDSection  = "okved_section"
	LineRevenue         = "line_2110"
	LineProfitBeforeTax = "line_2300"
	LineNetProfit       = "line_2400"
)

// DefaultFields is the column projection used when a caller asks for a
// company time series without naming fields.
var DefaultFields = []string{
	ColumnINN,
	ColumnYear,
	ColumnRegion,
	ColumnOKVEDSection,
	ColumnOKVED,
	LineRevenue,
	LineProfitBeforeTax,
	LineNetProfit,
}

// StatementRow is one company-period financial statement. INN and Year are
// the only columns the core interprets; everything else is carried opaquely
// in Fields under its source column name.
type StatementRow struct {
	INN    string         `json:"inn"`
	Year   int            `json:"year"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Clone returns a deep copy. Query results hand out clones so callers can
// never mutate the loaded dataset through a returned row.
func (r StatementRow) Clone() StatementRow {
	out := StatementRow{INN: r.INN, Year: r.Year}
	if r.Fields != nil {
		out.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// Value returns the row value for a column name, resolving the inn and year
// pseudo-columns from the typed struct fields.
func (r StatementRow) Value(column string) (any, bool) {
	switch column {
	case ColumnINN:
		return r.INN, true
	case ColumnYear:
		return r.Year, true
	}
	v, ok := r.Fields[column]
	return v, ok
}

// Float returns the column value as a float64 when it is numeric (or a
// numeric string). The second return is false for missing or non-numeric
// values, including nulls.
func (r StatementRow) Float(column string) (float64, bool) {
	v, ok := r.Value(column)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// String returns the column value rendered as a string, or "" when absent.
func (r StatementRow) String(column string) string {
	v, ok := r.Value(column)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// Project returns a map holding only the requested columns, in the shape the
// HTTP facade serializes. Unknown columns are emitted as nulls so responses
// keep a stable column set across years with differing schemas.
func (r StatementRow) Project(columns []string) map[string]any {
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := r.Value(c); ok {
			out[c] = v
		} else {
			out[c] = nil
		}
	}
	return out
}
