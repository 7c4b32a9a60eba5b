// Package weights validates a survey-weight column into a row-aligned weight vector.
package weights

import (
	"math"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// Vector holds the valid (finite, positive) weights of one column keyed by row label.
// Rows whose weight was discarded have no entry and are left out of weighted
// computations.
type Vector struct {
	Column      string `json:"column"`
	Valid       int    `json:"valid"`
	NonNumeric  int    `json:"non_numeric"`
	NonPositive int    `json:"non_positive"`

	byLabel map[int]float64
}

// Lookup returns the weight of the row with the given label.
func (v *Vector) Lookup(label int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	w, ok := v.byLabel[label]
	return w, ok
}

// Apply coerces column to positive finite weights. It never fails hard: a missing
// column or a column without any usable weight returns false and a nil vector. Every
// outcome is recorded in log, including how many entries were discarded.
func Apply(t *table.Table, column string, log *audit.Log) (*Vector, bool) {
	c, ok := t.Column(column)
	if !ok {
		log.Addf("Weight column %s not found", column)
		return nil, false
	}

	v := &Vector{Column: column, byLabel: make(map[int]float64, t.Rows())}
	for i := 0; i < t.Rows(); i++ {
		w, ok := coerce(c, i)
		switch {
		case !ok:
			v.NonNumeric++
		case w <= 0:
			v.NonPositive++
		default:
			v.byLabel[t.Label(i)] = w
		}
	}
	v.Valid = len(v.byLabel)

	if v.NonNumeric > 0 {
		log.Addf("Weight column '%s' contained %d/%d non-numeric entries; these will be ignored.", column, v.NonNumeric, t.Rows())
	}
	if v.NonPositive > 0 {
		log.Addf("Weight column '%s' contained %d/%d zero or negative entries; these will be ignored.", column, v.NonPositive, t.Rows())
	}
	if v.Valid == 0 {
		log.Addf("No valid positive numeric weights in '%s'. Proceeding without weights.", column)
		return nil, false
	}
	log.Addf("Applied weights from column: %s", column)
	return v, true
}

// coerce reads cell i as a finite number. Missing and malformed cells are not numeric.
func coerce(c *table.Column, i int) (float64, bool) {
	var w float64
	if c.Kind == table.Numeric {
		w = c.Num[i]
	} else {
		var ok bool
		if w, ok = table.ParseNumber(c.Text[i]); !ok {
			return 0, false
		}
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, false
	}
	return w, true
}
