package pipeline

import (
	"github.com/KaramelBytes/asdp-cli/internal/cleaning"
	"github.com/KaramelBytes/asdp-cli/internal/report"
	"github.com/KaramelBytes/asdp-cli/internal/table"
)

// Method is a selectable processing method and its display label.
type Method struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Catalog lists what a run configuration may select.
type Catalog struct {
	ImputationMethods       []Method `json:"imputation_methods"`
	OutlierDetectionMethods []Method `json:"outlier_detection_methods"`
	OutlierHandlingMethods  []Method `json:"outlier_handling_methods"`
	SupportedFileTypes      []string `json:"supported_file_types"`
	ReportFormats           []string `json:"report_formats"`
	ExportFormats           []string `json:"export_formats"`
	MaxFileSizeMB           int64    `json:"max_file_size_mb"`
}

// Options returns the processing catalog for the given settings.
func Options(s Settings) Catalog {
	limit := s.Load.MaxBytes
	if limit == 0 {
		limit = table.DefaultMaxBytes
	}
	mb := int64(-1)
	if limit > 0 {
		mb = limit / (1 << 20)
	}
	return Catalog{
		ImputationMethods: []Method{
			{cleaning.ImputeMean, "Mean Imputation"},
			{cleaning.ImputeMedian, "Median Imputation"},
			{cleaning.ImputeKNN, "K-Nearest Neighbors (KNN)"},
		},
		OutlierDetectionMethods: []Method{
			{cleaning.DetectIQR, "Interquartile Range (IQR)"},
			{cleaning.DetectZScore, "Z-Score"},
			{cleaning.DetectIsolationForest, "Isolation Forest"},
		},
		OutlierHandlingMethods: []Method{
			{cleaning.HandleWinsorize, "Winsorization"},
			{cleaning.HandleRemove, "Remove Outliers"},
		},
		SupportedFileTypes: table.SupportedExtensions(),
		ReportFormats:      append([]string(nil), report.Formats...),
		ExportFormats:      []string{ExportCSV, ExportXLSX},
		MaxFileSizeMB:      mb,
	}
}
