package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// buildRows assembles StatementRows from column-ordered records. The inn and
// year columns are pulled into their typed fields; everything else lands in
// Fields under its column name. Nulls are dropped rather than stored.
func buildRows(columns []string, records [][]any) ([]model.StatementRow, error) {
	innPos, yearPos := -1, -1
	for i, c := range columns {
		switch c {
		case model.ColumnINN:
			innPos = i
		case model.ColumnYear:
			yearPos = i
		}
	}
	if innPos < 0 || yearPos < 0 {
		return nil, eris.Wrap(ErrLoad, "source is missing inn or year column")
	}

	rows := make([]model.StatementRow, 0, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return nil, eris.Wrapf(ErrLoad, "record %d has %d values, want %d", i, len(rec), len(columns))
		}
		year, err := toYear(rec[yearPos])
		if err != nil {
			return nil, eris.Wrapf(ErrLoad, "record %d: %v", i, err)
		}
		row := model.StatementRow{
			INN:  toINN(rec[innPos]),
			Year: year,
		}
		for j, c := range columns {
			if j == innPos || j == yearPos {
				continue
			}
			v := normalizeValue(rec[j])
			if v == nil {
				continue
			}
			if row.Fields == nil {
				row.Fields = make(map[string]any)
			}
			row.Fields[c] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// toYear coerces a source value into a reporting year.
func toYear(v any) (int, error) {
	switch y := v.(type) {
	case int:
		return y, nil
	case int32:
		return int(y), nil
	case int64:
		return int(y), nil
	case float64:
		return int(y), nil
	case string:
		y = strings.TrimSpace(y)
		n, err := strconv.Atoi(y)
		if err != nil {
			return 0, fmt.Errorf("year %q is not an integer", y)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("year is null")
	default:
		return 0, fmt.Errorf("year has unsupported type %T", v)
	}
}

// toINN renders the tax identifier as a string. Some sources store inns as
// integers, which silently drops the leading zero present in real inns; the
// string form is kept verbatim when available.
func toINN(v any) string {
	switch inn := v.(type) {
	case string:
		return strings.TrimSpace(inn)
	case int64:
		return strconv.FormatInt(inn, 10)
	case int:
		return strconv.Itoa(inn)
	case float64:
		return strconv.FormatFloat(inn, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(inn)
	}
}

// normalizeValue maps driver-specific representations onto the small set of
// types the rest of the system handles: nil, string, float64, int, bool.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// parseCSVValue interprets a raw CSV cell: empty cells become nulls, numeric
// cells float64, everything else stays a string.
func parseCSVValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
