package weights

import (
	"math"
	"testing"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	"github.com/KaramelBytes/asdp-cli/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDiscardsNonPositive(t *testing.T) {
	tbl := table.MustNew(
		table.NumericColumn("x", []float64{1, 2, 3, 4}),
		table.NumericColumn("w", []float64{1.5, -0.5, 0, 2}),
	)
	log := audit.New(nil)
	v, ok := Apply(tbl, "w", log)
	require.True(t, ok)

	assert.Equal(t, 2, v.Valid)
	assert.Equal(t, 2, v.NonPositive)
	w, ok := v.Lookup(0)
	assert.True(t, ok)
	assert.Equal(t, 1.5, w)
	_, ok = v.Lookup(1)
	assert.False(t, ok)
	_, ok = v.Lookup(2)
	assert.False(t, ok)
	assert.Equal(t, []string{
		"Weight column 'w' contained 2/4 zero or negative entries; these will be ignored.",
		"Applied weights from column: w",
	}, log.Entries())
}

func TestApplyCoercesTextWeights(t *testing.T) {
	tbl := table.MustNew(table.TextColumn("w", []string{"1.2", "abc", "", "3"}))
	log := audit.New(nil)
	v, ok := Apply(tbl, "w", log)
	require.True(t, ok)
	assert.Equal(t, 2, v.Valid)
	assert.Equal(t, 2, v.NonNumeric)
	assert.Equal(t, "Weight column 'w' contained 2/4 non-numeric entries; these will be ignored.", log.Entries()[0])
}

func TestApplyKeysByRowLabel(t *testing.T) {
	tbl := table.MustNew(table.NumericColumn("w", []float64{1, 2, 3}))
	tbl.DropRows([]bool{true, false, false})
	v, ok := Apply(tbl, "w", nil)
	require.True(t, ok)
	w, ok := v.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, 3.0, w)
	_, ok = v.Lookup(0)
	assert.False(t, ok)
}

func TestApplyFailsSoftly(t *testing.T) {
	tbl := table.MustNew(table.NumericColumn("w", []float64{0, -1, math.NaN(), math.Inf(1)}))

	log := audit.New(nil)
	v, ok := Apply(tbl, "missing", log)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, []string{"Weight column missing not found"}, log.Entries())

	log = audit.New(nil)
	v, ok = Apply(tbl, "w", log)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, []string{
		"Weight column 'w' contained 2/4 non-numeric entries; these will be ignored.",
		"Weight column 'w' contained 2/4 zero or negative entries; these will be ignored.",
		"No valid positive numeric weights in 'w'. Proceeding without weights.",
	}, log.Entries())
}

func TestNilVectorLookup(t *testing.T) {
	var v *Vector
	_, ok := v.Lookup(0)
	assert.False(t, ok)
}
