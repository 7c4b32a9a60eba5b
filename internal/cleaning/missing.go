// Package cleaning implements the missing-value, imputation and outlier stages of a
// cleaning session. Every function mutates or reads a caller-owned table and records
// its decisions in the session's audit log.
package cleaning

import (
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// MissingEntry summarizes the missing cells of one column.
type MissingEntry struct {
	Column     string  `json:"column"`
	Count      int     `json:"missing_count"`
	Percentage float64 `json:"missing_percentage"`
}

// DetectMissing returns one entry per column that has at least one missing cell, in
// column order. Percentages are computed against the current row count.
func DetectMissing(t *table.Table) []MissingEntry {
	out := []MissingEntry{}
	rows := t.Rows()
	if rows == 0 {
		return out
	}
	for _, c := range t.Columns() {
		n := c.Missing()
		if n == 0 {
			continue
		}
		out = append(out, MissingEntry{
			Column:     c.Name,
			Count:      n,
			Percentage: float64(n) * 100 / float64(rows),
		})
	}
	return out
}

// ColumnInfo describes one column of a loaded dataset.
type ColumnInfo struct {
	Name    string     `json:"name"`
	Kind    table.Kind `json:"kind"`
	Missing int        `json:"missing"`
}

// Summary is the dataset overview shown right after loading.
type Summary struct {
	Rows    int            `json:"rows"`
	Columns int            `json:"columns"`
	Info    []ColumnInfo   `json:"column_info"`
	Missing []MissingEntry `json:"missing"`
}

// Describe returns the shape, column kinds and missing-value summary of t.
func Describe(t *table.Table) Summary {
	s := Summary{Rows: t.Rows(), Columns: t.NumCols(), Missing: DetectMissing(t)}
	for _, c := range t.Columns() {
		s.Info = append(s.Info, ColumnInfo{Name: c.Name, Kind: c.Kind, Missing: c.Missing()})
	}
	return s
}
