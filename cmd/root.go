package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/asdp-cli/internal/config"
	"github.com/KaramelBytes/asdp-cli/internal/metrics"
	"github.com/KaramelBytes/asdp-cli/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	metricsFile string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "asdp",
	Short: "ASDP: clean survey data and compute weighted estimates",
	Long: `ASDP loads tabular survey data (CSV, TSV, XLSX), imputes missing values, detects and
handles outliers, applies survey weights and reports unweighted and weighted estimates
with 95% confidence intervals. Every decision is recorded in an ordered cleaning log.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.asdp/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file on exit")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so read-only commands still work
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// settings returns session settings from the loaded config, or defaults.
func settings() pipeline.Settings {
	return pipeline.SettingsFromConfig(cfg)
}

// newLogger builds the process logger from config and --debug. It writes to stderr
// so JSON results on stdout stay clean.
func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	level, format := "info", "text"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	if lv, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lv)
	}
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// newMetrics returns a collector when --metrics-file is set, else nil.
func newMetrics() (*metrics.Collector, error) {
	if metricsFile == "" {
		return nil, nil
	}
	return metrics.New()
}

func flushMetrics(m *metrics.Collector) {
	if err := m.WriteFile(metricsFile); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
}
