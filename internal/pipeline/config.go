package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config selects the stages of one cleaning run. A nil section skips its stage.
// Estimation always runs; EstimateColumns narrows it (nil means every numeric column).
type Config struct {
	Imputation      *ImputationConfig `yaml:"imputation,omitempty" json:"imputation,omitempty"`
	Outliers        *OutlierConfig    `yaml:"outliers,omitempty" json:"outliers,omitempty"`
	Weights         *WeightConfig     `yaml:"weights,omitempty" json:"weights,omitempty"`
	EstimateColumns []string          `yaml:"estimate_columns,omitempty" json:"estimate_columns,omitempty"`
}

type ImputationConfig struct {
	Method  string   `yaml:"method" json:"method" validate:"omitempty,oneof=mean median knn"`
	Columns []string `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// OutlierConfig drives detection followed by handling. Zero Threshold and nil
// Percentile select the session defaults.
type OutlierConfig struct {
	DetectionMethod string   `yaml:"detection_method" json:"detection_method" validate:"omitempty,oneof=iqr zscore isolation_forest"`
	HandlingMethod  string   `yaml:"handling_method" json:"handling_method" validate:"omitempty,oneof=winsorize remove"`
	Columns         []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	Threshold       float64  `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"gte=0"`
	Percentile      *float64 `yaml:"percentile,omitempty" json:"percentile,omitempty" validate:"omitempty,gte=0,lt=50"`
}

type WeightConfig struct {
	Column string `yaml:"column" json:"column"`
}

// withDefaults fills empty method names the same way an empty request would.
func (c Config) withDefaults() Config {
	if c.Imputation != nil && c.Imputation.Method == "" {
		im := *c.Imputation
		im.Method = "mean"
		c.Imputation = &im
	}
	if c.Outliers != nil {
		o := *c.Outliers
		if o.DetectionMethod == "" {
			o.DetectionMethod = "iqr"
		}
		if o.HandlingMethod == "" {
			o.HandlingMethod = "winsorize"
		}
		c.Outliers = &o
	}
	return c
}

// Validate checks method names and numeric ranges. Unknown method names are
// InvalidMethod errors; anything else is a Config error.
func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.New(apperrors.KindConfig, "validate config", err)
	}
	kind := apperrors.KindConfig
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "oneof" {
			kind = apperrors.KindInvalidMethod
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Namespace(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return apperrors.Newf(kind, "%s", strings.Join(msgs, "; "))
}

// DecodeConfig reads a YAML (or JSON) run configuration.
func DecodeConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, apperrors.New(apperrors.KindConfig, "decode run config", err)
	}
	return c, c.Validate()
}

// LoadConfig reads a run configuration file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, apperrors.New(apperrors.KindConfig, "open run config", err)
	}
	defer f.Close()
	return DecodeConfig(f)
}
