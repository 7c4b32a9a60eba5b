package cleaning

import (
	"math"
	"math/rand"

	"github.com/KaramelBytes/asdp-cli/internal/stats"
)

const (
	DefaultTrees         = 100
	DefaultSampleSize    = 256
	DefaultContamination = 0.1
	DefaultSeed          = 42
)

// IsolationForest scores one-dimensional values by how quickly random splits isolate
// them, and flags the Contamination share with the highest anomaly scores. A fixed
// Seed makes results reproducible.
type IsolationForest struct {
	Trees         int
	SampleSize    int
	Contamination float64
	Seed          int64
}

func (IsolationForest) Name() string { return "isolation_forest" }

func (f IsolationForest) FitDetect(vals []float64) []bool {
	mask := make([]bool, len(vals))
	x := stats.NonNull(vals)
	if len(x) < 2 {
		return mask
	}
	psi := f.SampleSize
	if psi <= 0 || psi > len(x) {
		psi = len(x)
	}
	trees := f.Trees
	if trees <= 0 {
		trees = DefaultTrees
	}
	limit := int(math.Ceil(math.Log2(float64(psi))))
	rng := rand.New(rand.NewSource(f.Seed))

	forest := make([]*isoNode, trees)
	for i := range forest {
		sample := make([]float64, psi)
		for k, idx := range rng.Perm(len(x))[:psi] {
			sample[k] = x[idx]
		}
		forest[i] = growTree(sample, 0, limit, rng)
	}

	norm := avgPathLength(psi)
	scores := make([]float64, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			scores[i] = math.NaN()
			continue
		}
		total := 0.0
		for _, tree := range forest {
			total += tree.pathLength(v, 0)
		}
		scores[i] = math.Pow(2, -(total/float64(trees))/norm)
	}
	cut := stats.Quantile(scores, 1-f.Contamination)
	for i, s := range scores {
		mask[i] = !math.IsNaN(s) && s > cut
	}
	return mask
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

func growTree(x []float64, depth, limit int, rng *rand.Rand) *isoNode {
	if depth >= limit || len(x) <= 1 {
		return &isoNode{size: len(x)}
	}
	lo, hi := x[0], x[0]
	for _, v := range x[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return &isoNode{size: len(x)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range x {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isoNode{
		split: split,
		left:  growTree(left, depth+1, limit, rng),
		right: growTree(right, depth+1, limit, rng),
	}
}

func (n *isoNode) pathLength(v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + avgPathLength(n.size)
	}
	if v < n.split {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful search in a binary
// search tree of n nodes.
func avgPathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	const euler = 0.5772156649015329
	m := float64(n)
	return 2*(math.Log(m-1)+euler) - 2*(m-1)/m
}
