package cleaning

import (
	"math"

	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/stats"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// Detection methods.
const (
	DetectIQR             = "iqr"
	DetectZScore          = "zscore"
	DetectIsolationForest = "isolation_forest"
)

// DetectMethods lists the accepted detection method names.
var DetectMethods = []string{DetectIQR, DetectZScore, DetectIsolationForest}

// Default thresholds per detection method.
const (
	DefaultIQRThreshold    = 1.5
	DefaultZScoreThreshold = 3.0
)

// OutlierStat reports the flagged rows of one column. Indices are row labels and stay
// meaningful only until rows are next removed.
type OutlierStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Indices    []int   `json:"indices"`
}

// OutlierReport maps column name to its detection result.
type OutlierReport map[string]OutlierStat

// DefaultThreshold returns the usual threshold for method.
func DefaultThreshold(method string) float64 {
	if method == DetectZScore {
		return DefaultZScoreThreshold
	}
	return DefaultIQRThreshold
}

// DetectOutliers flags anomalous values in every numeric column. A non-positive
// threshold selects the method's default. The table is not modified. When the
// isolation forest is unavailable each column falls back to the IQR rule and the
// fallback is recorded once.
func (c *Cleaner) DetectOutliers(t *table.Table, method string, threshold float64) (OutlierReport, error) {
	switch method {
	case DetectIQR, DetectZScore, DetectIsolationForest:
	default:
		return nil, apperrors.Newf(apperrors.KindInvalidMethod,
			"outlier detection method must be one of iqr, zscore or isolation_forest, got %q", method)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold(method)
	}

	var detect func([]float64) []bool
	switch method {
	case DetectIQR:
		detect = func(v []float64) []bool { return iqrMask(v, threshold) }
	case DetectZScore:
		detect = func(v []float64) []bool { return zscoreMask(v, threshold) }
	case DetectIsolationForest:
		if c.tools.Forest != nil {
			detect = c.tools.Forest.FitDetect
		} else {
			c.log.Warnf("Isolation Forest unavailable; fell back to IQR method")
			c.fellBack("isolation_forest")
			detect = func(v []float64) []bool { return iqrMask(v, threshold) }
		}
	}

	report := OutlierReport{}
	rows := t.Rows()
	for _, name := range t.NumericNames() {
		col, _ := t.Column(name)
		mask := detect(col.Num)
		st := OutlierStat{Indices: []int{}}
		for i, flagged := range mask {
			if flagged {
				st.Indices = append(st.Indices, t.Label(i))
			}
		}
		st.Count = len(st.Indices)
		if rows > 0 {
			st.Percentage = float64(st.Count) * 100 / float64(rows)
		}
		report[name] = st
	}
	return report, nil
}

// iqrMask flags values outside [Q1 - k*IQR, Q3 + k*IQR].
func iqrMask(vals []float64, k float64) []bool {
	lo, hi := stats.IQRBounds(vals, k)
	mask := make([]bool, len(vals))
	for i, v := range vals {
		mask[i] = v < lo || v > hi
	}
	return mask
}

// zscoreMask flags values whose population z-score exceeds k in magnitude. A zero or
// undefined standard deviation flags nothing.
func zscoreMask(vals []float64, k float64) []bool {
	mask := make([]bool, len(vals))
	mean, std := stats.PopMeanStd(vals)
	if std == 0 || math.IsNaN(std) {
		return mask
	}
	for i, v := range vals {
		mask[i] = math.Abs((v-mean)/std) > k
	}
	return mask
}
