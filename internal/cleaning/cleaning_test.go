package cleaning

import (
	"math"
	"testing"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/stats"
	"github.com/KaramelBytes/asdp-cli/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

// surveyTable is the 10-row survey fixture: age and income each miss one value and
// income carries one extreme value at row 4.
func surveyTable() *table.Table {
	return table.MustNew(
		table.NumericColumn("id", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}),
		table.NumericColumn("age", []float64{25, 34, nan, 45, 52, 29, 41, 38, 60, 33}),
		table.NumericColumn("income", []float64{30000, 42000, 38000, nan, 500000, 35000, 47000, 40000, 52000, 39000}),
		table.NumericColumn("education", []float64{12, 16, 14, 18, 16, 12, 16, 14, 18, 12}),
		table.TextColumn("region", []string{"n", "s", "e", "w", "n", "s", "", "w", "n", "s"}),
	)
}

func col(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()
	c, ok := tbl.Column(name)
	require.True(t, ok, name)
	return c.Num
}

func TestDetectMissing(t *testing.T) {
	tbl := table.MustNew(
		table.NumericColumn("a", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, nan}),
		table.NumericColumn("b", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}),
		table.TextColumn("c", []string{"x", "", "x", "x", "x", "x", "x", "x", "x", "x"}),
	)
	got := DetectMissing(tbl)
	assert.Equal(t, []MissingEntry{
		{Column: "a", Count: 1, Percentage: 10.0},
		{Column: "c", Count: 1, Percentage: 10.0},
	}, got)
	assert.Equal(t, got, DetectMissing(tbl))

	clean := table.MustNew(table.NumericColumn("a", []float64{1}))
	assert.Empty(t, DetectMissing(clean))
	assert.NotNil(t, DetectMissing(clean))
}

func TestDescribe(t *testing.T) {
	s := Describe(surveyTable())
	assert.Equal(t, 10, s.Rows)
	assert.Equal(t, 5, s.Columns)
	require.Len(t, s.Info, 5)
	assert.Equal(t, ColumnInfo{Name: "region", Kind: table.Text, Missing: 1}, s.Info[4])
	assert.Len(t, s.Missing, 3)
}

func TestImputeMeanUsesPreImputationMean(t *testing.T) {
	tbl := surveyTable()
	wantAge := stats.Mean(col(t, tbl, "age"))
	wantIncome := stats.Mean(col(t, tbl, "income"))
	log := audit.New(nil)

	require.NoError(t, New(NewToolkit(DefaultCapabilities()), log).Impute(tbl, ImputeMean, nil))

	for _, name := range tbl.NumericNames() {
		assert.Zero(t, stats.CountNull(col(t, tbl, name)), name)
	}
	assert.Equal(t, wantAge, col(t, tbl, "age")[2])
	assert.Equal(t, wantIncome, col(t, tbl, "income")[3])
	assert.Equal(t, []string{"Imputed missing values using mean method for 4 columns"}, log.Entries())
}

func TestImputeMedianRespectsSelection(t *testing.T) {
	tbl := surveyTable()
	log := audit.New(nil)
	require.NoError(t, New(Toolkit{}, log).Impute(tbl, ImputeMedian, []string{"age", "region", "nope"}))

	assert.Equal(t, 38.0, col(t, tbl, "age")[2])
	assert.True(t, math.IsNaN(col(t, tbl, "income")[3]), "income was not selected")
	assert.Equal(t, []string{"Imputed missing values using median method for 1 columns"}, log.Entries())
}

func TestKNNImputerUsesNearestDonors(t *testing.T) {
	tbl := table.MustNew(
		table.NumericColumn("a", []float64{1, 2, 3, 10, nan}),
		table.NumericColumn("b", []float64{1, 2, 3, 10, 2.1}),
	)
	require.NoError(t, KNNImputer{Neighbors: 2}.Impute(tbl, []string{"a", "b"}))
	assert.InDelta(t, 2.5, col(t, tbl, "a")[4], 1e-12)
	assert.Equal(t, 2.1, col(t, tbl, "b")[4])
}

func TestKNNImputerFallsBackToMeanWithoutDonors(t *testing.T) {
	tbl := table.MustNew(
		table.NumericColumn("a", []float64{1, 3, nan}),
		table.NumericColumn("b", []float64{nan, nan, 5}),
	)
	require.NoError(t, KNNImputer{Neighbors: 5}.Impute(tbl, []string{"a", "b"}))
	assert.Equal(t, 2.0, col(t, tbl, "a")[2])
	assert.Equal(t, []float64{5, 5, 5}, col(t, tbl, "b"))
}

func TestImputeKNNThroughCleaner(t *testing.T) {
	tbl := table.MustNew(
		table.NumericColumn("a", []float64{1, 2, 3, 10, nan}),
		table.NumericColumn("b", []float64{1, 2, 3, 10, 2.1}),
	)
	log := audit.New(nil)
	require.NoError(t, New(NewToolkit(DefaultCapabilities()), log).Impute(tbl, ImputeKNN, nil))
	assert.InDelta(t, 4.0, col(t, tbl, "a")[4], 1e-12)
	assert.Equal(t, []string{"Imputed missing values using knn method for 2 columns"}, log.Entries())
}

func TestImputeKNNFallsBackToMean(t *testing.T) {
	tbl := surveyTable()
	wantAge := stats.Mean(col(t, tbl, "age"))
	log := audit.New(nil)
	var fallbacks []string
	c := New(NewToolkit(Capabilities{}), log)
	c.OnFallback = func(name string) { fallbacks = append(fallbacks, name) }

	require.NoError(t, c.Impute(tbl, ImputeKNN, nil))
	assert.Equal(t, wantAge, col(t, tbl, "age")[2])
	assert.Equal(t, []string{"KNN imputation unavailable; fell back to mean imputation for 4 columns"}, log.Entries())
	assert.Equal(t, []string{"knn"}, fallbacks)
}

func TestImputeRejectsUnknownMethod(t *testing.T) {
	tbl := surveyTable()
	log := audit.New(nil)
	err := New(Toolkit{}, log).Impute(tbl, "mode", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidMethod)
	assert.True(t, math.IsNaN(col(t, tbl, "age")[2]))
	assert.Zero(t, log.Len())
}

func TestDetectIQRFlagsEngineeredExtreme(t *testing.T) {
	tbl := surveyTable()
	report, err := New(Toolkit{}, nil).DetectOutliers(tbl, DetectIQR, 1.5)
	require.NoError(t, err)

	assert.Equal(t, OutlierStat{Count: 1, Percentage: 10, Indices: []int{4}}, report["income"])
	assert.Equal(t, 0, report["age"].Count)
	assert.NotContains(t, report, "region")
}

func TestDetectReportsRowLabelsAfterRemoval(t *testing.T) {
	tbl := surveyTable()
	tbl.DropRows([]bool{true, false, false, false, false, false, false, false, false, false})
	report, err := New(Toolkit{}, nil).DetectOutliers(tbl, DetectIQR, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, report["income"].Indices)
}

func TestDetectZScore(t *testing.T) {
	tbl := surveyTable()
	c := New(Toolkit{}, nil)

	report, err := c.DetectOutliers(tbl, DetectZScore, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report["income"].Count, "z is about 2.83 under the default of 3")

	report, err = c.DetectOutliers(tbl, DetectZScore, 2.5)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, report["income"].Indices)

	flat := table.MustNew(table.NumericColumn("k", []float64{7, 7, 7, nan}))
	report, err = c.DetectOutliers(flat, DetectZScore, 0.1)
	require.NoError(t, err)
	assert.Equal(t, OutlierStat{Indices: []int{}}, report["k"])
}

func TestIsolationForestFlagsExtreme(t *testing.T) {
	vals := make([]float64, 0, 52)
	for i := 1; i <= 50; i++ {
		vals = append(vals, float64(i))
	}
	vals = append(vals, nan, 1000)
	f := NewToolkit(DefaultCapabilities()).Forest
	require.NotNil(t, f)

	mask := f.FitDetect(vals)
	require.Len(t, mask, len(vals))
	assert.True(t, mask[51])
	assert.False(t, mask[50], "missing values are never flagged")
	flagged := 0
	for _, m := range mask {
		if m {
			flagged++
		}
	}
	assert.GreaterOrEqual(t, flagged, 1)
	assert.LessOrEqual(t, flagged, 5)
	assert.Equal(t, mask, f.FitDetect(vals), "a fixed seed is reproducible")
}

func TestIsolationForestFallsBackToIQROnce(t *testing.T) {
	tbl := surveyTable()
	log := audit.New(nil)
	var fallbacks []string
	c := New(NewToolkit(Capabilities{KNN: true}), log)
	c.OnFallback = func(name string) { fallbacks = append(fallbacks, name) }

	report, err := c.DetectOutliers(tbl, DetectIsolationForest, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, report["income"].Indices)
	assert.Equal(t, []string{"Isolation Forest unavailable; fell back to IQR method"}, log.Entries())
	assert.Equal(t, []string{"isolation_forest"}, fallbacks)
}

func TestDetectRejectsUnknownMethod(t *testing.T) {
	_, err := New(Toolkit{}, nil).DetectOutliers(surveyTable(), "dbscan", 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidMethod)
}

func TestWinsorizeBoundsColumns(t *testing.T) {
	tbl := surveyTable()
	before := map[string][]float64{}
	for _, name := range tbl.NumericNames() {
		before[name] = stats.Quantiles(col(t, tbl, name), 0.05, 0.95)
	}
	log := audit.New(nil)
	require.NoError(t, New(Toolkit{}, log).HandleOutliers(tbl, HandleWinsorize, nil, 5))

	for _, name := range tbl.NumericNames() {
		vals := stats.Sorted(col(t, tbl, name))
		assert.GreaterOrEqual(t, vals[0], before[name][0], name)
		assert.LessOrEqual(t, vals[len(vals)-1], before[name][1], name)
	}
	assert.True(t, math.IsNaN(col(t, tbl, "income")[3]), "missing cells stay missing")
	assert.Equal(t, 10, tbl.Rows())
	assert.Equal(t, []string{"Handled outliers using winsorize method for 4 columns"}, log.Entries())
}

func TestRemoveUsesFixedMultiplier(t *testing.T) {
	tbl := table.MustNew(
		table.NumericColumn("x", []float64{1, 2, 3, 4, 100, nan}),
		table.TextColumn("tag", []string{"a", "b", "c", "d", "e", "f"}),
	)
	log := audit.New(nil)
	require.NoError(t, New(Toolkit{}, log).HandleOutliers(tbl, HandleRemove, nil, 0))

	assert.Equal(t, []int{0, 1, 2, 3, 5}, tbl.Labels())
	tag, _ := tbl.Column("tag")
	assert.Equal(t, []string{"a", "b", "c", "d", "f"}, tag.Text)
	assert.Equal(t, []string{"Handled outliers using remove method for 1 columns (1 rows removed)"}, log.Entries())
}

func TestHandleRejectsBadInput(t *testing.T) {
	c := New(Toolkit{}, nil)
	assert.ErrorIs(t, c.HandleOutliers(surveyTable(), "trim", nil, 5), apperrors.ErrInvalidMethod)
	assert.ErrorIs(t, c.HandleOutliers(surveyTable(), HandleWinsorize, nil, 60), apperrors.ErrConfig)
}
