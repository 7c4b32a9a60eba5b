package pipeline

import (
	"github.com/KaramelBytes/asdp-cli/internal/cleaning"
	"github.com/KaramelBytes/asdp-cli/internal/config"
	"github.com/KaramelBytes/asdp-cli/internal/estimate"
	"github.com/KaramelBytes/asdp-cli/internal/report"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// Settings are the session-wide parameters that a run Config does not carry.
type Settings struct {
	Load                table.LoadOptions
	Capabilities        cleaning.Capabilities
	IQRThreshold        float64
	ZScoreThreshold     float64
	WinsorizePercentile float64
	ZCritical           float64
	Plots               report.PlotOptions
	ReportTitle         string
	ReportSubtitle      string
}

// DefaultSettings returns the usual parameters with every capability enabled.
func DefaultSettings() Settings {
	return Settings{
		Load:                table.LoadOptions{MaxBytes: table.DefaultMaxBytes},
		Capabilities:        cleaning.DefaultCapabilities(),
		IQRThreshold:        cleaning.DefaultIQRThreshold,
		ZScoreThreshold:     cleaning.DefaultZScoreThreshold,
		WinsorizePercentile: cleaning.DefaultPercentile,
		ZCritical:           estimate.DefaultZ,
		Plots:               report.DefaultPlotOptions(),
		ReportTitle:         report.DefaultTitle,
	}
}

// SettingsFromConfig maps the global configuration onto session settings.
func SettingsFromConfig(g *config.Global) Settings {
	s := DefaultSettings()
	if g == nil {
		return s
	}
	s.Load.MaxBytes = g.MaxFileBytes
	s.Capabilities.KNN = g.EnableKNN
	s.Capabilities.KNNNeighbors = g.KNNNeighbors
	s.Capabilities.IsolationForest = g.EnableIsolationForest
	s.Capabilities.Contamination = g.IsolationContamination
	s.IQRThreshold = g.IQRThreshold
	s.ZScoreThreshold = g.ZScoreThreshold
	s.WinsorizePercentile = g.WinsorizePercentile
	s.ZCritical = g.ZCritical
	s.Plots.Disabled = g.DisablePlots
	s.Plots.MaxColumns = g.MaxPlotColumns
	s.Plots.MaxRows = g.MaxPlotRows
	if g.ReportTitle != "" {
		s.ReportTitle = g.ReportTitle
	}
	s.ReportSubtitle = g.ReportSubtitle
	return s
}

func (s Settings) threshold(method string) float64 {
	if method == cleaning.DetectZScore {
		return s.ZScoreThreshold
	}
	return s.IQRThreshold
}
