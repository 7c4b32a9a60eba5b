package table

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	apperrors "github.com/KaramelBytes/asdp-cli/internal/errors"
)

// DefaultMaxBytes caps input size when LoadOptions.MaxBytes is zero.
const DefaultMaxBytes = 16 << 20

// LoadOptions controls file loading.
type LoadOptions struct {
	// MaxBytes rejects larger files; 0 means DefaultMaxBytes, negative disables the cap.
	MaxBytes int64
	// Sheet selects a workbook sheet by name; empty means the first sheet.
	Sheet string
}

// Loader reads one family of tabular formats into a header and raw records.
type Loader interface {
	CanLoad(path string) bool
	Read(path string, opt LoadOptions, log *audit.Log) (header []string, records [][]string, err error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(delimitedLoader{})
	Register(workbookLoader{})
}

// SupportedExtensions lists the recognized file extensions.
func SupportedExtensions() []string {
	return []string{"csv", "tsv", "xlsx", "xls"}
}

// Load parses the file at path into a Table. Unknown extensions fail with
// UnsupportedFormat; exhausted parser fallbacks fail with LoadFailure. One audit entry
// records the resulting shape, preceded by one naming auto-converted columns, if any.
func Load(path string, opt LoadOptions, log *audit.Log) (*Table, error) {
	var loader Loader
	for _, l := range registry {
		if l.CanLoad(path) {
			loader = l
			break
		}
	}
	if loader == nil {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		return nil, apperrors.Newf(apperrors.KindUnsupportedFormat,
			"unsupported file format %q (supported: %s)", ext, strings.Join(SupportedExtensions(), ", "))
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Addf("Error loading data: %v", err)
		return nil, apperrors.New(apperrors.KindLoadFailure, "stat input", err)
	}
	limit := opt.MaxBytes
	if limit == 0 {
		limit = DefaultMaxBytes
	}
	if limit > 0 && info.Size() > limit {
		log.Addf("Error loading data: file is %d bytes, limit is %d", info.Size(), limit)
		return nil, apperrors.Newf(apperrors.KindLoadFailure, "file %s is %d bytes (limit %d)", filepath.Base(path), info.Size(), limit)
	}

	header, records, err := loader.Read(path, opt, log)
	if err != nil {
		log.Addf("Error loading data: %v", err)
		return nil, apperrors.New(apperrors.KindLoadFailure, fmt.Sprintf("load %s", filepath.Base(path)), err).
			WithContext("path", path)
	}

	t, converted := build(header, records)
	if len(converted) > 0 {
		log.Addf("Auto-converted numeric-like columns: %s", strings.Join(converted, ", "))
	}
	log.Addf("Data loaded successfully: %d rows, %d columns", t.Rows(), t.NumCols())
	return t, nil
}

// build turns raw cells into typed columns. A column is numeric when every present
// cell is a plain number (or when every cell is missing); otherwise it is text and the
// numeric-like coercion heuristic gets one chance to convert it.
func build(header []string, records [][]string) (*Table, []string) {
	names := uniqueNames(header)
	t := &Table{byName: make(map[string]int, len(names)), labels: make([]int, len(records))}
	for i := range t.labels {
		t.labels[i] = i
	}
	var converted []string
	for j, name := range names {
		raw := make([]string, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			}
		}
		col := inferColumn(name, raw)
		if col.Kind == Text {
			if nums, ok := coerceText(col.Text); ok {
				col = NumericColumn(name, nums)
				converted = append(converted, name)
			}
		}
		t.byName[name] = j
		t.cols = append(t.cols, col)
	}
	return t, converted
}

func inferColumn(name string, raw []string) *Column {
	nums := make([]float64, len(raw))
	numeric := true
	for i, v := range raw {
		if isMissingToken(v) {
			nums[i] = math.NaN()
			continue
		}
		f, ok := parseStrict(v)
		if !ok {
			numeric = false
			break
		}
		nums[i] = f
	}
	if numeric {
		return NumericColumn(name, nums)
	}
	text := make([]string, len(raw))
	for i, v := range raw {
		if isMissingToken(v) {
			continue
		}
		text[i] = strings.TrimSpace(v)
	}
	return TextColumn(name, text)
}

// uniqueNames fills blank headers and disambiguates duplicates with a numeric suffix.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for {
			if _, dup := seen[name]; !dup {
				break
			}
			seen[base]++
			name = fmt.Sprintf("%s.%d", base, seen[base])
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
