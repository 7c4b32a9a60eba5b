package cleaning

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/stats"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// Imputation methods.
const (
	ImputeMean   = "mean"
	ImputeMedian = "median"
	ImputeKNN    = "knn"
)

// ImputeMethods lists the accepted imputation method names.
var ImputeMethods = []string{ImputeMean, ImputeMedian, ImputeKNN}

// Cleaner runs the cleaning stages against one session's table and audit log.
type Cleaner struct {
	tools Toolkit
	log   *audit.Log
	// OnFallback, when set, is called with the capability name each time an
	// unavailable strategy is replaced by its fallback.
	OnFallback func(capability string)
}

// New returns a Cleaner that records decisions in log.
func New(tools Toolkit, log *audit.Log) *Cleaner {
	return &Cleaner{tools: tools, log: log}
}

func (c *Cleaner) fellBack(capability string) {
	if c.OnFallback != nil {
		c.OnFallback(capability)
	}
}

// Impute fills missing cells of the selected numeric columns in place. A nil
// selection means every numeric column. Unknown methods fail with InvalidMethod and
// leave the table untouched.
func (c *Cleaner) Impute(t *table.Table, method string, columns []string) error {
	cols := t.SelectNumeric(columns)
	switch method {
	case ImputeMean, ImputeMedian:
		fillEach(t, cols, method)
	case ImputeKNN:
		if c.tools.KNN == nil {
			fillEach(t, cols, ImputeMean)
			c.log.Warnf("KNN imputation unavailable; fell back to mean imputation for %d columns", len(cols))
			c.fellBack("knn")
			return nil
		}
		if err := c.tools.KNN.Impute(t, cols); err != nil {
			return fmt.Errorf("knn imputation: %w", err)
		}
	default:
		return apperrors.Newf(apperrors.KindInvalidMethod,
			"imputation method must be one of mean, median or knn, got %q", method)
	}
	c.log.Addf("Imputed missing values using %s method for %d columns", method, len(cols))
	return nil
}

// fillEach replaces NaN cells of each column with that column's own mean or median
// over its present values. Columns with no present values stay missing.
func fillEach(t *table.Table, cols []string, method string) {
	for _, name := range cols {
		col, _ := t.Column(name)
		var fill float64
		if method == ImputeMedian {
			fill = stats.Median(col.Num)
		} else {
			fill = stats.Mean(col.Num)
		}
		if math.IsNaN(fill) {
			continue
		}
		for i, v := range col.Num {
			if math.IsNaN(v) {
				col.Num[i] = fill
			}
		}
	}
}
