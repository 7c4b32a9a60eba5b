// Package pipeline owns one cleaning session: the table, its weights, its estimates
// and the audit log, and sequences the cleaning stages over them.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	"github.com/KaramelBytes/asdp-cli/internal/cleaning"
	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/KaramelBytes/asdp-cli/internal/estimate"
	"github.com/KaramelBytes/asdp-cli/internal/metrics"
	"github.com/KaramelBytes/asdp-cli/internal/report"
	"github.com/KaramelBytes/asdp-cli/internal/table"
	"github.com/KaramelBytes/asdp-cli/internal/weights"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Stage names, as reported to metrics.
const (
	StageLoad     = "load"
	StageImpute   = "impute"
	StageDetect   = "detect_outliers"
	StageHandle   = "handle_outliers"
	StageWeights  = "weights"
	StageEstimate = "estimate"
	StagePlots    = "plots"
)

// Pipeline is a single processing session. It is not safe for concurrent use; run
// independent sessions on independent Pipelines.
type Pipeline struct {
	id       string
	settings Settings
	logger   logrus.FieldLogger
	metrics  *metrics.Collector

	log        *audit.Log
	cleaner    *cleaning.Cleaner
	table      *table.Table
	weights    *weights.Vector
	estimates  *estimate.Estimates
	outliers   cleaning.OutlierReport
	plots      map[string]string
	conditions []apperrors.Condition
}

// Result is the JSON-facing outcome of a session.
type Result struct {
	Session        string                  `json:"session"`
	Rows           int                     `json:"rows"`
	Columns        int                     `json:"columns"`
	CleaningLog    []string                `json:"cleaning_log"`
	Missing        []cleaning.MissingEntry `json:"missing"`
	Outliers       cleaning.OutlierReport  `json:"outliers,omitempty"`
	WeightsApplied bool                    `json:"weights_applied"`
	Estimates      *estimate.Estimates     `json:"estimates"`
	Plots          map[string]string       `json:"plots"`
	Conditions     []apperrors.Condition   `json:"conditions,omitempty"`
}

// New starts an empty session. logger and m may be nil.
func New(s Settings, logger logrus.FieldLogger, m *metrics.Collector) *Pipeline {
	p := &Pipeline{settings: s, metrics: m}
	p.id = uuid.NewString()
	if logger != nil {
		p.logger = logger.WithField("session", p.id)
	}
	p.Reset()
	return p
}

// Reset discards the table, weights, estimates and log, keeping the session id.
func (p *Pipeline) Reset() {
	p.log = audit.New(p.logger)
	p.log.OnAppend(p.metrics.AuditEntry)
	p.cleaner = cleaning.New(cleaning.NewToolkit(p.settings.Capabilities), p.log)
	p.cleaner.OnFallback = p.fellBack
	p.table = nil
	p.weights = nil
	p.estimates = nil
	p.outliers = nil
	p.plots = nil
	p.conditions = nil
}

// ID returns the session id.
func (p *Pipeline) ID() string { return p.id }

// Table returns the session table, or nil before a successful Load.
func (p *Pipeline) Table() *table.Table { return p.table }

// Log returns a copy of the audit log.
func (p *Pipeline) Log() []string { return p.log.Entries() }

// Conditions returns the recoverable events absorbed so far.
func (p *Pipeline) Conditions() []apperrors.Condition {
	return append([]apperrors.Condition(nil), p.conditions...)
}

func (p *Pipeline) fellBack(capability string) {
	p.metrics.Fallback(capability)
	entries := p.log.Entries()
	p.conditions = append(p.conditions, apperrors.Condition{
		Kind:    apperrors.KindCapabilityUnavailable,
		Message: entries[len(entries)-1],
	})
}

// stage times fn and records its outcome.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.metrics.ObserveStage(name, time.Since(start), err)
	if err != nil && p.logger != nil {
		p.logger.WithError(err).WithField("stage", name).Error("stage failed")
	}
	return err
}

func (p *Pipeline) requireData() error {
	if p.table == nil {
		return apperrors.Newf(apperrors.KindNoData, "no dataset loaded")
	}
	return nil
}

// Load replaces the session table with the contents of path. Any previous table,
// weights and estimates are discarded; the audit log keeps growing.
func (p *Pipeline) Load(path string) error {
	return p.stage(StageLoad, func() error {
		t, err := table.Load(path, p.settings.Load, p.log)
		if err != nil {
			return err
		}
		p.table = t
		p.weights = nil
		p.estimates = nil
		p.outliers = nil
		p.plots = nil
		return nil
	})
}

// Summary describes the loaded table.
func (p *Pipeline) Summary() (cleaning.Summary, error) {
	if err := p.requireData(); err != nil {
		return cleaning.Summary{}, err
	}
	return cleaning.Describe(p.table), nil
}

// DetectMissing reports missing values of the current table.
func (p *Pipeline) DetectMissing() ([]cleaning.MissingEntry, error) {
	if err := p.requireData(); err != nil {
		return nil, err
	}
	return cleaning.DetectMissing(p.table), nil
}

// Impute fills missing numeric cells; nil columns means every numeric column.
func (p *Pipeline) Impute(method string, columns []string) error {
	if err := p.requireData(); err != nil {
		return err
	}
	return p.stage(StageImpute, func() error {
		return p.cleaner.Impute(p.table, method, columns)
	})
}

// DetectOutliers flags outliers in every numeric column. A non-positive threshold
// selects the session default for the method. The report is kept for the result.
func (p *Pipeline) DetectOutliers(method string, threshold float64) (cleaning.OutlierReport, error) {
	if err := p.requireData(); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = p.settings.threshold(method)
	}
	var rep cleaning.OutlierReport
	err := p.stage(StageDetect, func() error {
		var err error
		rep, err = p.cleaner.DetectOutliers(p.table, method, threshold)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.outliers = rep
	return rep, nil
}

// HandleOutliers winsorizes or removes outliers. A nil percentile selects the session
// default.
func (p *Pipeline) HandleOutliers(method string, columns []string, percentile *float64) error {
	if err := p.requireData(); err != nil {
		return err
	}
	pct := p.settings.WinsorizePercentile
	if percentile != nil {
		pct = *percentile
	}
	return p.stage(StageHandle, func() error {
		return p.cleaner.HandleOutliers(p.table, method, columns, pct)
	})
}

// ApplyWeights replaces the session weights with those of column. A false result
// means the session now has no weights; it is recorded as a condition, never an error.
func (p *Pipeline) ApplyWeights(column string) (bool, error) {
	if err := p.requireData(); err != nil {
		return false, err
	}
	var ok bool
	_ = p.stage(StageWeights, func() error {
		p.weights, ok = weights.Apply(p.table, column, p.log)
		return nil
	})
	if !ok {
		entries := p.log.Entries()
		p.conditions = append(p.conditions, apperrors.Condition{
			Kind:    apperrors.KindWeightColumnInvalid,
			Column:  column,
			Message: entries[len(entries)-1],
		})
	}
	return ok, nil
}

// Weights returns the current weight vector, or nil.
func (p *Pipeline) Weights() *weights.Vector { return p.weights }

// Estimate computes estimates for the selected numeric columns (nil means all).
func (p *Pipeline) Estimate(ctx context.Context, columns []string) (*estimate.Estimates, error) {
	if err := p.requireData(); err != nil {
		return nil, err
	}
	var est *estimate.Estimates
	err := p.stage(StageEstimate, func() error {
		var conds []apperrors.Condition
		var err error
		est, conds, err = estimate.New(p.settings.ZCritical, p.log).Estimate(ctx, p.table, p.weights, columns)
		p.conditions = append(p.conditions, conds...)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.estimates = est
	return est, nil
}

// Plots renders the session charts. Plotting never fails the session.
func (p *Pipeline) Plots() (map[string]string, error) {
	if err := p.requireData(); err != nil {
		return nil, err
	}
	_ = p.stage(StagePlots, func() error {
		p.plots = report.Plots(p.table, p.settings.Plots, p.log)
		return nil
	})
	return p.plots, nil
}

// Run validates cfg, loads path and runs the configured stages in order: imputation,
// outlier detection and handling, weights, estimation and plots.
func (p *Pipeline) Run(ctx context.Context, path string, cfg Config) (res *Result, err error) {
	defer func() { p.metrics.Session(err) }()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	if err := p.Load(path); err != nil {
		return nil, err
	}
	if im := cfg.Imputation; im != nil {
		if err := p.Impute(im.Method, im.Columns); err != nil {
			return nil, err
		}
	}
	if o := cfg.Outliers; o != nil {
		if _, err := p.DetectOutliers(o.DetectionMethod, o.Threshold); err != nil {
			return nil, err
		}
		if err := p.HandleOutliers(o.HandlingMethod, o.Columns, o.Percentile); err != nil {
			return nil, err
		}
	}
	if w := cfg.Weights; w != nil && w.Column != "" {
		if _, err := p.ApplyWeights(w.Column); err != nil {
			return nil, err
		}
	}
	if _, err := p.Estimate(ctx, cfg.EstimateColumns); err != nil {
		return nil, err
	}
	if _, err := p.Plots(); err != nil {
		return nil, err
	}
	return p.Result()
}

// Result snapshots the session.
func (p *Pipeline) Result() (*Result, error) {
	if err := p.requireData(); err != nil {
		return nil, err
	}
	plots := p.plots
	if plots == nil {
		plots = map[string]string{}
	}
	return &Result{
		Session:        p.id,
		Rows:           p.table.Rows(),
		Columns:        p.table.NumCols(),
		CleaningLog:    p.log.Entries(),
		Missing:        cleaning.DetectMissing(p.table),
		Outliers:       p.outliers,
		WeightsApplied: p.weights != nil,
		Estimates:      p.estimates,
		Plots:          plots,
		Conditions:     p.Conditions(),
	}, nil
}

// Report renders the session summary in format (html, pdf or markdown).
func (p *Pipeline) Report(w io.Writer, format string) error {
	if err := p.requireData(); err != nil {
		return err
	}
	r, err := report.RendererFor(format)
	if err != nil {
		return err
	}
	s := report.Assemble(p.table, p.log.Entries(), p.estimates, report.Options{
		Title:    p.settings.ReportTitle,
		Subtitle: p.settings.ReportSubtitle,
		Now:      time.Now(),
		Outliers: p.outliers,
		Plots:    p.plots,
	})
	if err := r.Render(w, s); err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}
	return nil
}

// Export formats for the cleaned table.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// Export writes the current table as csv or xlsx.
func (p *Pipeline) Export(w io.Writer, format string) error {
	if err := p.requireData(); err != nil {
		return err
	}
	switch format {
	case ExportCSV:
		return table.WriteCSV(w, p.table)
	case ExportXLSX:
		return table.WriteXLSX(w, p.table, "")
	default:
		return apperrors.Newf(apperrors.KindInvalidMethod, "export format must be csv or xlsx, got %q", format)
	}
}
