// Package export renders company financial data into XLSX workbooks.
package export

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/NeuroTechWizards/ai-market/internal/databook"
	"github.com/NeuroTechWizards/ai-market/internal/model"
)

// RevenuePoint is one year of the revenue series. Revenue is nil when the
// company filed no statement (or no revenue line) for that year.
type RevenuePoint struct {
	Year    int      `json:"year"`
	Revenue *float64 `json:"revenue"`
}

// WriteRevenue writes a two-sheet workbook: the revenue time series and a
// meta sheet with the request parameters.
func WriteRevenue(w io.Writer, inn string, series []RevenuePoint) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("revenue_timeseries")
	if err != nil {
		return eris.Wrap(err, "export: add revenue sheet")
	}
	header := sheet.AddRow()
	header.AddCell().SetString("year")
	header.AddCell().SetString("revenue")
	for _, p := range series {
		row := sheet.AddRow()
		row.AddCell().SetInt(p.Year)
		if p.Revenue != nil {
			row.AddCell().SetFloat(*p.Revenue)
		} else {
			row.AddCell().SetString("")
		}
	}

	if err := addMetaSheet(f, inn); err != nil {
		return err
	}

	return eris.Wrap(f.Write(w), "export: write revenue workbook")
}

// WriteFullProfile writes every line_* indicator of a company as a matrix:
// one row per indicator (code plus Russian name from the databook), one
// column per requested year.
func WriteFullProfile(w io.Writer, inn string, years []int, rows []model.StatementRow, book *databook.Databook) error {
	if book == nil {
		book = databook.Empty()
	}

	codes := indicatorCodes(rows)
	matrix := make(map[string]map[int]float64, len(codes))
	for _, code := range codes {
		matrix[code] = make(map[int]float64)
	}
	for _, r := range rows {
		for _, code := range codes {
			if v, ok := r.Float(code); ok {
				matrix[code][r.Year] = v
			}
		}
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Financial Profile")
	if err != nil {
		return eris.Wrap(err, "export: add profile sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Indicator Code")
	header.AddCell().SetString("Indicator Name (RU)")
	for _, y := range years {
		header.AddCell().SetString(strconv.Itoa(y))
	}

	for _, code := range codes {
		row := sheet.AddRow()
		row.AddCell().SetString(code)
		row.AddCell().SetString(book.Name(code))
		for _, y := range years {
			if v, ok := matrix[code][y]; ok {
				row.AddCell().SetFloat(v)
			} else {
				row.AddCell().SetString("")
			}
		}
	}

	if err := addMetaSheet(f, inn); err != nil {
		return err
	}

	return eris.Wrap(f.Write(w), "export: write profile workbook")
}

// indicatorCodes returns the sorted set of line_* columns present in rows.
func indicatorCodes(rows []model.StatementRow) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		for k := range r.Fields {
			if strings.HasPrefix(k, "line_") {
				seen[k] = true
			}
		}
	}
	codes := make([]string, 0, len(seen))
	for k := range seen {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

func addMetaSheet(f *xlsx.File, inn string) error {
	meta, err := f.AddSheet("meta")
	if err != nil {
		return eris.Wrap(err, "export: add meta sheet")
	}
	header := meta.AddRow()
	header.AddCell().SetString("inn")
	header.AddCell().SetString("generated_at")
	row := meta.AddRow()
	row.AddCell().SetString(inn)
	row.AddCell().SetString(time.Now().UTC().Format(time.RFC3339))
	return nil
}
