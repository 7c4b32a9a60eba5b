// Package estimate computes unweighted and survey-weighted point and interval
// estimates per numeric column.
package estimate

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/stats"
	"github.com/KaramelBytes/asdp-cli/internal/table"
	"github.com/KaramelBytes/asdp-cli/internal/weights"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// DefaultZ is the normal critical value for a 95% confidence interval.
const DefaultZ = 1.96

// Engine computes estimates for one session.
type Engine struct {
	z   float64
	log *audit.Log
}

// New returns an Engine using critical value z (DefaultZ when z <= 0).
func New(z float64, log *audit.Log) *Engine {
	if z <= 0 {
		z = DefaultZ
	}
	return &Engine{z: z, log: log}
}

// Estimate computes a Record for each selected numeric column (nil means all). The
// unweighted block is always present. The weighted block is present whenever w is
// non-nil; a column whose values share no valid weight gets NaN weighted fields, an
// audit entry and an EstimationFailure condition, and the remaining columns proceed.
// Columns are computed concurrently; the table must not be mutated meanwhile.
func (e *Engine) Estimate(ctx context.Context, t *table.Table, w *weights.Vector, columns []string) (*Estimates, []apperrors.Condition, error) {
	names := t.SelectNumeric(columns)
	records := make([]Record, len(names))
	failed := make([]bool, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			col, _ := t.Column(name)
			records[i].Unweighted = e.unweighted(col.Num)
			if w != nil {
				b, ok := e.weighted(t, col.Num, w)
				records[i].Weighted = &b
				failed[i] = !ok
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("estimate: %w", err)
	}

	out := newEstimates(len(names))
	var conds []apperrors.Condition
	for i, name := range names {
		if failed[i] {
			msg := fmt.Sprintf("Weighted estimate failed for '%s'; no rows with both a value and a valid weight.", name)
			e.log.Add(msg)
			conds = append(conds, apperrors.Condition{Kind: apperrors.KindEstimationFailure, Column: name, Message: msg})
		}
		out.set(name, records[i])
	}
	e.log.Addf("Calculated estimates for %d columns", len(names))
	return out, conds, nil
}

// unweighted uses the sample standard deviation and the count of present values.
func (e *Engine) unweighted(vals []float64) Block {
	x := stats.NonNull(vals)
	n := float64(len(x))
	mean := stats.Mean(x)
	std := stats.SampleStd(x)
	return e.block(mean, std, std/math.Sqrt(n))
}

// weighted aligns present values with valid weights by row label and uses the
// population-weighted variance.
func (e *Engine) weighted(t *table.Table, vals []float64, w *weights.Vector) (Block, bool) {
	var x, wt []float64
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if wi, ok := w.Lookup(t.Label(i)); ok {
			x = append(x, v)
			wt = append(wt, wi)
		}
	}
	sum := 0.0
	for _, v := range wt {
		sum += v
	}
	if len(x) == 0 || sum <= 0 {
		return nanBlock(), false
	}
	mean, std := stat.PopMeanStdDev(x, wt)
	return e.block(mean, std, std/math.Sqrt(float64(len(x)))), true
}

func (e *Engine) block(mean, std, se float64) Block {
	return Block{
		Mean:    mean,
		Std:     std,
		SE:      se,
		CILower: mean - e.z*se,
		CIUpper: mean + e.z*se,
	}
}

func nanBlock() Block {
	nan := math.NaN()
	return Block{Mean: nan, Std: nan, SE: nan, CILower: nan, CIUpper: nan}
}
