package cleaning

import (
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// ImputeStrategy fills missing cells of the named numeric columns jointly.
type ImputeStrategy interface {
	Name() string
	Impute(t *table.Table, columns []string) error
}

// DetectStrategy flags anomalous values of a single column. vals may contain NaN;
// the returned mask has the same length and never flags a NaN.
type DetectStrategy interface {
	Name() string
	FitDetect(vals []float64) []bool
}

// Capabilities selects which advanced algorithms a session may use.
type Capabilities struct {
	KNN             bool
	KNNNeighbors    int
	IsolationForest bool
	Contamination   float64
	Seed            int64
}

// DefaultCapabilities enables every advanced algorithm with its usual parameters.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		KNN:             true,
		KNNNeighbors:    DefaultNeighbors,
		IsolationForest: true,
		Contamination:   DefaultContamination,
		Seed:            DefaultSeed,
	}
}

// Toolkit holds the advanced strategies resolved once per session. A nil field means
// the capability is unavailable and callers degrade to the documented fallback.
type Toolkit struct {
	KNN    ImputeStrategy
	Forest DetectStrategy
}

// NewToolkit resolves capabilities into concrete strategies.
func NewToolkit(c Capabilities) Toolkit {
	var tk Toolkit
	if c.KNN {
		k := c.KNNNeighbors
		if k <= 0 {
			k = DefaultNeighbors
		}
		tk.KNN = KNNImputer{Neighbors: k}
	}
	if c.IsolationForest {
		rate := c.Contamination
		if rate <= 0 || rate >= 0.5 {
			rate = DefaultContamination
		}
		tk.Forest = IsolationForest{Trees: DefaultTrees, SampleSize: DefaultSampleSize, Contamination: rate, Seed: c.Seed}
	}
	return tk
}
