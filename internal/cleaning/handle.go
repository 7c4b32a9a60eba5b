package cleaning

import (
	"math"

	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/stats"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// Handling methods.
const (
	HandleWinsorize = "winsorize"
	HandleRemove    = "remove"
)

// HandleMethods lists the accepted handling method names.
var HandleMethods = []string{HandleWinsorize, HandleRemove}

// DefaultPercentile is the winsorization tail cut, in percent.
const DefaultPercentile = 5.0

// RemovalIQRMultiplier fixes the fences used by row removal. It is independent of the
// detection threshold: detection sensitivity and removal conservatism are tuned
// separately.
const RemovalIQRMultiplier = 1.5

// HandleOutliers remediates outliers in the selected numeric columns (nil means all).
//
// winsorize clips each column to its [percentile, 100-percentile] quantile range.
// remove walks the columns in order and drops rows outside that column's 1.5*IQR
// fences, recomputing the quartiles on the rows that remain. Missing cells are kept
// either way.
func (c *Cleaner) HandleOutliers(t *table.Table, method string, columns []string, percentile float64) error {
	cols := t.SelectNumeric(columns)
	switch method {
	case HandleWinsorize:
		if percentile < 0 || percentile >= 50 {
			return apperrors.Newf(apperrors.KindConfig, "winsorize percentile must be in [0, 50), got %g", percentile)
		}
		p := percentile / 100
		for _, name := range cols {
			col, _ := t.Column(name)
			q := stats.Quantiles(col.Num, p, 1-p)
			for i, v := range col.Num {
				if math.IsNaN(v) {
					continue
				}
				col.Num[i] = math.Min(math.Max(v, q[0]), q[1])
			}
		}
		c.log.Addf("Handled outliers using %s method for %d columns", method, len(cols))
	case HandleRemove:
		removed := 0
		for _, name := range cols {
			col, _ := t.Column(name)
			lo, hi := stats.IQRBounds(col.Num, RemovalIQRMultiplier)
			drop := make([]bool, len(col.Num))
			for i, v := range col.Num {
				drop[i] = v < lo || v > hi
			}
			removed += t.DropRows(drop)
		}
		c.log.Addf("Handled outliers using %s method for %d columns (%d rows removed)", method, len(cols), removed)
	default:
		return apperrors.Newf(apperrors.KindInvalidMethod,
			"outlier handling method must be one of winsorize or remove, got %q", method)
	}
	return nil
}
