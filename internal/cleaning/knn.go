package cleaning

import (
	"math"
	"sort"

	"github.com/KaramelBytes/asdp-cli/internal/stats"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// DefaultNeighbors is the neighbourhood size used by KNN imputation.
const DefaultNeighbors = 5

// KNNImputer fills each missing cell with the mean of that column over the nearest
// rows that have it. Distances use only the coordinates both rows have, scaled up by
// the share of coordinates that were missing. All fills are computed from the table as
// it was before imputation, so filled values never act as donors.
type KNNImputer struct {
	Neighbors int
}

func (KNNImputer) Name() string { return "knn" }

func (k KNNImputer) Impute(t *table.Table, columns []string) error {
	if len(columns) == 0 || t.Rows() == 0 {
		return nil
	}
	cols := make([][]float64, len(columns))
	for j, name := range columns {
		c, _ := t.Column(name)
		cols[j] = c.Num
	}
	filled := make([][]float64, len(cols))
	for j := range cols {
		filled[j] = append([]float64(nil), cols[j]...)
	}

	rows := t.Rows()
	means := make([]float64, len(cols))
	for j := range cols {
		means[j] = stats.Mean(cols[j])
	}
	type donor struct {
		row  int
		dist float64
	}
	for r := 0; r < rows; r++ {
		var dists []donor
		for j := range cols {
			if !math.IsNaN(cols[j][r]) {
				continue
			}
			if dists == nil {
				dists = make([]donor, 0, rows)
				for d := 0; d < rows; d++ {
					if d == r {
						continue
					}
					if dist, ok := nanEuclidean(cols, r, d); ok {
						dists = append(dists, donor{row: d, dist: dist})
					}
				}
				sort.SliceStable(dists, func(a, b int) bool { return dists[a].dist < dists[b].dist })
			}
			sum, n := 0.0, 0
			for _, d := range dists {
				v := cols[j][d.row]
				if math.IsNaN(v) {
					continue
				}
				sum += v
				n++
				if n == k.Neighbors {
					break
				}
			}
			if n == 0 {
				filled[j][r] = means[j]
				continue
			}
			filled[j][r] = sum / float64(n)
		}
	}
	for j, name := range columns {
		if err := t.SetNumeric(name, filled[j]); err != nil {
			return err
		}
	}
	return nil
}

// nanEuclidean is the Euclidean distance over coordinates present in both rows,
// scaled by total/present. ok is false when the rows share no coordinate.
func nanEuclidean(cols [][]float64, a, b int) (float64, bool) {
	sum := 0.0
	present := 0
	for _, c := range cols {
		x, y := c[a], c[b]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		d := x - y
		sum += d * d
		present++
	}
	if present == 0 {
		return 0, false
	}
	return math.Sqrt(float64(len(cols)) / float64(present) * sum), true
}
