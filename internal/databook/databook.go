// Package databook loads the RFSD indicator dictionary: a workbook mapping
// statement line codes (line_2110, ...) to their Russian indicator names.
package databook

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Databook maps indicator codes to human-readable Russian names.
type Databook struct {
	names map[string]string
}

// Empty returns a databook with no entries. Lookups return "".
func Empty() *Databook {
	return &Databook{names: map[string]string{}}
}

// Load reads a databook from an .xlsx or .csv file with "code" and "name_ru"
// columns. Rows without a code are skipped.
func Load(path string) (*Databook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return loadXLSX(path)
	case ".csv":
		return loadCSV(path)
	default:
		return nil, eris.Errorf("databook: unsupported file %q", path)
	}
}

// Name returns the Russian name for an indicator code, or "" when unknown.
func (d *Databook) Name(code string) string {
	return d.names[code]
}

// Len returns the number of known indicators.
func (d *Databook) Len() int {
	return len(d.names)
}

func loadXLSX(path string) (*Databook, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "databook: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("databook: workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("databook: sheet is empty")
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, c := range sheet.Rows[0].Cells {
		header[i] = strings.TrimSpace(c.String())
	}
	codePos, namePos, err := headerPositions(header)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for _, row := range sheet.Rows[1:] {
		if len(row.Cells) <= codePos || len(row.Cells) <= namePos {
			continue
		}
		code := strings.TrimSpace(row.Cells[codePos].String())
		if code == "" {
			continue
		}
		names[code] = strings.TrimSpace(row.Cells[namePos].String())
	}

	zap.L().Info("databook loaded", zap.String("path", path), zap.Int("indicators", len(names)))
	return &Databook{names: names}, nil
}

func loadCSV(path string) (*Databook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "databook: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "databook: read csv header")
	}
	codePos, namePos, err := headerPositions(header)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "databook: read csv row")
		}
		if len(rec) <= codePos || len(rec) <= namePos {
			continue
		}
		code := strings.TrimSpace(rec[codePos])
		if code == "" {
			continue
		}
		names[code] = strings.TrimSpace(rec[namePos])
	}

	zap.L().Info("databook loaded", zap.String("path", path), zap.Int("indicators", len(names)))
	return &Databook{names: names}, nil
}

func headerPositions(header []string) (codePos, namePos int, err error) {
	codePos, namePos = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "code":
			codePos = i
		case "name_ru":
			namePos = i
		}
	}
	if codePos < 0 || namePos < 0 {
		return 0, 0, eris.New("databook: missing code or name_ru column")
	}
	return codePos, namePos, nil
}
