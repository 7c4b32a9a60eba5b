package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/asdp-cli/internal/pipeline"
	"github.com/KaramelBytes/asdp-cli/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	clRunConfig      string
	clImpute         string
	clImputeColumns  []string
	clDetect         string
	clHandle         string
	clOutlierColumns []string
	clThreshold      float64
	clPercentile     float64
	clWeights        string
	clEstimate       []string
	clSheet          string

	clJSON         bool
	clExport       string
	clReport       string
	clReportFormat string
	clPlotsDir     string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean a dataset and compute unweighted and weighted estimates",
	Long: `Runs one cleaning session over <file>: optional imputation, outlier detection and
handling, and survey weights, followed by estimation for every numeric column.

Stages come from --pipeline-config (YAML or JSON) and/or the stage flags; a flag
overrides the same setting from the file. Stages that are not configured are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := runConfigFromFlags(cmd)
		if err != nil {
			return err
		}
		m, err := newMetrics()
		if err != nil {
			return err
		}
		defer flushMetrics(m)

		s := settings()
		s.Load.Sheet = clSheet
		p := pipeline.New(s, newLogger(), m)
		res, err := p.Run(cmd.Context(), args[0], rc)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if clJSON {
			b, err := utils.IndentJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(b))
		} else {
			printResult(out, res)
		}

		if clExport != "" {
			if err := exportTable(out, p, clExport); err != nil {
				return err
			}
		}
		if clReport != "" {
			if err := writeReport(out, p, clReport, clReportFormat); err != nil {
				return err
			}
		}
		if clPlotsDir != "" {
			if err := writePlots(out, res.Plots, clPlotsDir); err != nil {
				return err
			}
		}
		return nil
	},
}

// runConfigFromFlags merges --pipeline-config with the stage flags.
func runConfigFromFlags(cmd *cobra.Command) (pipeline.Config, error) {
	var rc pipeline.Config
	if clRunConfig != "" {
		c, err := pipeline.LoadConfig(clRunConfig)
		if err != nil {
			return rc, err
		}
		rc = c
	}
	f := cmd.Flags()
	if f.Changed("impute") || f.Changed("impute-columns") {
		if rc.Imputation == nil {
			rc.Imputation = &pipeline.ImputationConfig{}
		}
		if f.Changed("impute") {
			rc.Imputation.Method = clImpute
		}
		if f.Changed("impute-columns") {
			rc.Imputation.Columns = clImputeColumns
		}
	}
	if f.Changed("detect") || f.Changed("handle") || f.Changed("outlier-columns") ||
		f.Changed("threshold") || f.Changed("percentile") {
		if rc.Outliers == nil {
			rc.Outliers = &pipeline.OutlierConfig{}
		}
		if f.Changed("detect") {
			rc.Outliers.DetectionMethod = clDetect
		}
		if f.Changed("handle") {
			rc.Outliers.HandlingMethod = clHandle
		}
		if f.Changed("outlier-columns") {
			rc.Outliers.Columns = clOutlierColumns
		}
		if f.Changed("threshold") {
			rc.Outliers.Threshold = clThreshold
		}
		if f.Changed("percentile") {
			pct := clPercentile
			rc.Outliers.Percentile = &pct
		}
	}
	if f.Changed("weights") {
		rc.Weights = &pipeline.WeightConfig{Column: clWeights}
	}
	if f.Changed("estimate") {
		rc.EstimateColumns = clEstimate
	}
	return rc, nil
}

func printResult(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Session %s: %d rows, %d columns\n\n", res.Session, res.Rows, res.Columns)
	fmt.Fprintln(w, "Cleaning log:")
	for i, e := range res.CleaningLog {
		fmt.Fprintf(w, "  %d. %s\n", i+1, e)
	}
	if res.Estimates == nil || res.Estimates.Len() == 0 {
		fmt.Fprintln(w, "\nNo estimates were calculated.")
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tBASIS\tMEAN\tSTD\tSE\tCI LOWER\tCI UPPER")
	for _, name := range res.Estimates.Names() {
		rec, _ := res.Estimates.Get(name)
		row := func(basis string, mean, std, se, lo, hi float64) {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", name, basis, mean, std, se, lo, hi)
		}
		u := rec.Unweighted
		row("unweighted", u.Mean, u.Std, u.SE, u.CILower, u.CIUpper)
		if wb := rec.Weighted; wb != nil {
			row("weighted", wb.Mean, wb.Std, wb.SE, wb.CILower, wb.CIUpper)
		}
	}
	_ = tw.Flush()
}

// outputPath resolves a relative output path under the configured output_dir.
func outputPath(path string) string {
	if cfg == nil || cfg.OutputDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.OutputDir, path)
}

func exportTable(w io.Writer, p *pipeline.Pipeline, path string) error {
	path = outputPath(path)
	format := pipeline.ExportCSV
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		format = pipeline.ExportXLSX
	}
	var buf bytes.Buffer
	if err := p.Export(&buf, format); err != nil {
		return err
	}
	if err := utils.WriteOutput(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote cleaned data to %s\n", path)
	return nil
}

// reportFormat picks the explicit format, else one implied by the file extension.
func reportFormat(path, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "pdf"
	case ".md", ".markdown":
		return "markdown"
	default:
		return "html"
	}
}

func writeReport(w io.Writer, p *pipeline.Pipeline, path, format string) error {
	path = outputPath(path)
	var buf bytes.Buffer
	if err := p.Report(&buf, reportFormat(path, format)); err != nil {
		return err
	}
	if err := utils.WriteOutput(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote report to %s\n", path)
	return nil
}

func writePlots(w io.Writer, plots map[string]string, dir string) error {
	dir = outputPath(dir)
	names := make([]string, 0, len(plots))
	for name := range plots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := utils.WriteOutput(filepath.Join(dir, name+".svg"), []byte(plots[name]), 0o644); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "✓ Wrote %d plots to %s\n", len(names), dir)
	return nil
}

// stageFlags holds the stage selection flags shared by clean and clean-batch.
var stageFlags = func() *pflag.FlagSet {
	f := pflag.NewFlagSet("stages", pflag.ContinueOnError)
	f.StringVar(&clRunConfig, "pipeline-config", "", "YAML/JSON run configuration (imputation, outliers, weights, estimate_columns)")
	f.StringVar(&clImpute, "impute", "", "imputation method: mean|median|knn")
	f.StringSliceVar(&clImputeColumns, "impute-columns", nil, "columns to impute (default all numeric)")
	f.StringVar(&clDetect, "detect", "", "outlier detection method: iqr|zscore|isolation_forest")
	f.StringVar(&clHandle, "handle", "", "outlier handling method: winsorize|remove")
	f.StringSliceVar(&clOutlierColumns, "outlier-columns", nil, "columns to handle outliers in (default all numeric)")
	f.Float64Var(&clThreshold, "threshold", 0, "detection threshold (default 1.5 for iqr, 3.0 for zscore)")
	f.Float64Var(&clPercentile, "percentile", 5, "winsorization tail percentile, in [0, 50)")
	f.StringVar(&clWeights, "weights", "", "survey weight column")
	f.StringSliceVar(&clEstimate, "estimate", nil, "columns to estimate (default all numeric)")
	f.StringVar(&clSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	return f
}()

func cleanStageFlags() *pflag.FlagSet { return stageFlags }

func init() {
	rootCmd.AddCommand(cleanCmd)
	f := cleanCmd.Flags()
	f.AddFlagSet(cleanStageFlags())
	f.BoolVar(&clJSON, "json", false, "print the result as JSON")
	f.StringVar(&clExport, "export", "", "write the cleaned table to this .csv or .xlsx file")
	f.StringVar(&clReport, "report", "", "write a report to this file")
	f.StringVar(&clReportFormat, "report-format", "", "report format: html|pdf|markdown (default from --report extension)")
	f.StringVar(&clPlotsDir, "plots", "", "write SVG plots into this directory")
}
