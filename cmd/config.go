package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/asdp-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ASDP configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "max_file_bytes: %d\n", cfg.MaxFileBytes)
		fmt.Fprintf(out, "knn_neighbors: %d\n", cfg.KNNNeighbors)
		fmt.Fprintf(out, "iqr_threshold: %g\n", cfg.IQRThreshold)
		fmt.Fprintf(out, "zscore_threshold: %g\n", cfg.ZScoreThreshold)
		fmt.Fprintf(out, "isolation_contamination: %g\n", cfg.IsolationContamination)
		fmt.Fprintf(out, "winsorize_percentile: %g\n", cfg.WinsorizePercentile)
		fmt.Fprintf(out, "z_critical: %g\n", cfg.ZCritical)
		fmt.Fprintf(out, "enable_knn: %t\n", cfg.EnableKNN)
		fmt.Fprintf(out, "enable_isolation_forest: %t\n", cfg.EnableIsolationForest)
		fmt.Fprintf(out, "max_plot_columns: %d\n", cfg.MaxPlotColumns)
		fmt.Fprintf(out, "max_plot_rows: %d\n", cfg.MaxPlotRows)
		fmt.Fprintf(out, "disable_plots: %t\n", cfg.DisablePlots)
		fmt.Fprintf(out, "report_title: %s\n", cfg.ReportTitle)
		if cfg.ReportSubtitle != "" {
			fmt.Fprintf(out, "report_subtitle: %s\n", cfg.ReportSubtitle)
		}
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		if cfg.OutputDir != "" {
			fmt.Fprintf(out, "output_dir: %s\n", cfg.OutputDir)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		if err := setKey(&next, key, val); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	parseInt := func() (int, error) {
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return n, nil
	}
	parseFloat := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return f, nil
	}
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid %s: %w", key, err)
		}
		return b, nil
	}

	var err error
	switch key {
	case "max_file_bytes":
		var n int64
		n, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		c.MaxFileBytes = n
	case "knn_neighbors":
		c.KNNNeighbors, err = parseInt()
	case "iqr_threshold":
		c.IQRThreshold, err = parseFloat()
	case "zscore_threshold":
		c.ZScoreThreshold, err = parseFloat()
	case "isolation_contamination":
		c.IsolationContamination, err = parseFloat()
	case "winsorize_percentile":
		c.WinsorizePercentile, err = parseFloat()
	case "z_critical":
		c.ZCritical, err = parseFloat()
	case "enable_knn":
		c.EnableKNN, err = parseBool()
	case "enable_isolation_forest":
		c.EnableIsolationForest, err = parseBool()
	case "max_plot_columns":
		c.MaxPlotColumns, err = parseInt()
	case "max_plot_rows":
		c.MaxPlotRows, err = parseInt()
	case "disable_plots":
		c.DisablePlots, err = parseBool()
	case "report_title":
		c.ReportTitle = val
	case "report_subtitle":
		c.ReportSubtitle = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		c.LogFormat = val
	case "output_dir":
		c.OutputDir = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
