package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	MaxFileBytes int64 `mapstructure:"max_file_bytes" yaml:"max_file_bytes" validate:"gte=0"`

	// Algorithm parameters
	KNNNeighbors           int     `mapstructure:"knn_neighbors" yaml:"knn_neighbors" validate:"gte=1"`
	IQRThreshold           float64 `mapstructure:"iqr_threshold" yaml:"iqr_threshold" validate:"gt=0"`
	ZScoreThreshold        float64 `mapstructure:"zscore_threshold" yaml:"zscore_threshold" validate:"gt=0"`
	IsolationContamination float64 `mapstructure:"isolation_contamination" yaml:"isolation_contamination" validate:"gt=0,lt=0.5"`
	WinsorizePercentile    float64 `mapstructure:"winsorize_percentile" yaml:"winsorize_percentile" validate:"gte=0,lt=50"`
	ZCritical              float64 `mapstructure:"z_critical" yaml:"z_critical" validate:"gt=0"`

	// Capabilities; disabling one forces the documented fallback
	EnableKNN             bool `mapstructure:"enable_knn" yaml:"enable_knn"`
	EnableIsolationForest bool `mapstructure:"enable_isolation_forest" yaml:"enable_isolation_forest"`

	// Visualizations
	MaxPlotColumns int  `mapstructure:"max_plot_columns" yaml:"max_plot_columns" validate:"gte=0"`
	MaxPlotRows    int  `mapstructure:"max_plot_rows" yaml:"max_plot_rows" validate:"gte=0"`
	DisablePlots   bool `mapstructure:"disable_plots" yaml:"disable_plots"`

	// Reports
	ReportTitle    string `mapstructure:"report_title" yaml:"report_title"`
	ReportSubtitle string `mapstructure:"report_subtitle" yaml:"report_subtitle"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=trace debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`

	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// Validate checks value ranges.
func (c *Global) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".asdp"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.asdp/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ASDP")
	v.AutomaticEnv()

	v.SetDefault("max_file_bytes", 16<<20)
	v.SetDefault("knn_neighbors", 5)
	v.SetDefault("iqr_threshold", 1.5)
	v.SetDefault("zscore_threshold", 3.0)
	v.SetDefault("isolation_contamination", 0.1)
	v.SetDefault("winsorize_percentile", 5.0)
	v.SetDefault("z_critical", 1.96)
	v.SetDefault("enable_knn", true)
	v.SetDefault("enable_isolation_forest", true)
	v.SetDefault("max_plot_columns", 5)
	v.SetDefault("max_plot_rows", 5000)
	v.SetDefault("disable_plots", false)
	v.SetDefault("report_title", "ASDP (AI Survey Data Processor) Report")
	v.SetDefault("report_subtitle", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("output_dir", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
