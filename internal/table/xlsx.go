package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	"github.com/xuri/excelize/v2"
)

// workbookLoader reads the first (or the named) sheet of a spreadsheet. Legacy binary
// .xls workbooks are recognized but cannot be opened by excelize, so they surface as a
// load failure rather than an unsupported format.
type workbookLoader struct{}

func (workbookLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
}

func (workbookLoader) Read(path string, opt LoadOptions, log *audit.Log) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, nil, fmt.Errorf("sheet %q not found in workbook %s (available: %s)",
				opt.Sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}
	if len(sheets) > 1 {
		log.Addf("Workbook has %d sheets; using %q", len(sheets), sheet)
	}

	// Stored values, not the display text produced by each cell's number format.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, errNoHeader
	}
	header := rows[0]
	width := len(header)
	for _, r := range rows[1:] {
		if len(r) > width {
			width = len(r)
		}
	}
	// GetRows trims trailing empty cells, so widen the header and pad every row.
	header = pad(header, width)
	records := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		records = append(records, pad(r, width))
	}
	if n := evalUncachedFormulas(f, sheet, records); n > 0 {
		log.Addf("Evaluated %d formula cells saved without a cached result", n)
	}
	return header, records, nil
}

// evalUncachedFormulas fills empty data cells that hold a formula with its computed
// value. Cells whose formula cannot be evaluated stay empty and load as missing.
func evalUncachedFormulas(f *excelize.File, sheet string, records [][]string) int {
	n := 0
	for i, r := range records {
		for j, v := range r {
			if v != "" {
				continue
			}
			// Data rows start below the header row.
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				continue
			}
			if formula, err := f.GetCellFormula(sheet, cell); err != nil || formula == "" {
				continue
			}
			val, err := f.CalcCellValue(sheet, cell, excelize.Options{RawCellValue: true})
			if err != nil || val == "" {
				continue
			}
			r[j] = val
			n++
		}
	}
	return n
}
