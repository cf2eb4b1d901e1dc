package bot

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ruPrinter formats numbers with Russian digit grouping (space separators).
var ruPrinter = message.NewPrinter(language.Russian)

// FormatNumber renders a nullable value as a grouped integer string, "-" for
// missing values.
func FormatNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return ruPrinter.Sprintf("%.0f", *v)
}

// FormatCell renders a JSON-decoded table cell the way FormatNumber renders
// typed values. Non-numeric cells pass through as strings.
func FormatCell(v any) string {
	switch n := v.(type) {
	case nil:
		return "-"
	case float64:
		return ruPrinter.Sprintf("%.0f", n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return ruPrinter.Sprintf("%.0f", f)
		}
		return n
	default:
		return fmt.Sprint(v)
	}
}

// cellString renders a cell as plain text without grouping (used for years).
func cellString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}
