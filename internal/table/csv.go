package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/asdp-cli/internal/audit"
	"golang.org/x/text/encoding/charmap"
)

// delimitedLoader reads CSV and TSV files through a chain of increasingly lenient
// strategies: the standard dialect, then delimiter detection, then a latin-1 decode
// that skips malformed lines. Each fallback is recorded in the audit log.
type delimitedLoader struct{}

func (delimitedLoader) CanLoad(path string) bool {
	name := strings.ToLower(path)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (delimitedLoader) Read(path string, _ LoadOptions, log *audit.Log) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	delim := defaultDelimiter(path)

	header, records, err := readStandard(data, delim)
	if err == nil {
		return header, records, nil
	}
	log.Addf("Standard parse failed (%v); retrying with delimiter detection", err)

	header, records, err = readSniffed(data)
	if err == nil {
		return header, records, nil
	}
	log.Addf("Delimiter detection failed (%v); retrying with latin-1 encoding and skipping malformed lines", err)

	header, records, skipped, err := readLenient(data)
	if err != nil {
		return nil, nil, fmt.Errorf("all parsing strategies failed: %w", err)
	}
	if skipped > 0 {
		log.Addf("Skipped %d malformed lines", skipped)
	}
	return header, records, nil
}

func defaultDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

var errNoHeader = errors.New("no header row")

func readStandard(data []byte, delim rune) ([]string, [][]string, error) {
	if !utf8.Valid(data) {
		return nil, nil, errors.New("input is not valid UTF-8")
	}
	return readAll(data, delim, false)
}

func readSniffed(data []byte) ([]string, [][]string, error) {
	if !utf8.Valid(data) {
		return nil, nil, errors.New("input is not valid UTF-8")
	}
	return readAll(data, sniffDelimiter(data), true)
}

// readAll parses every record. Rows shorter than the header are padded with missing
// cells; rows longer than the header are an error.
func readAll(data []byte, delim rune, lazy bool) ([]string, [][]string, error) {
	r := newReader(data, delim, lazy)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errNoHeader
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if len(rec) > len(header) {
			return nil, nil, fmt.Errorf("row %d: expected %d fields, saw %d", len(records)+1, len(header), len(rec))
		}
		records = append(records, pad(rec, len(header)))
	}
	return header, records, nil
}

// readLenient decodes the input as latin-1, sniffs the delimiter and drops any line
// that fails to parse or carries more fields than the header.
func readLenient(data []byte) ([]string, [][]string, int, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("decode latin-1: %w", err)
	}
	r := newReader(decoded, sniffDelimiter(decoded), true)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, 0, errNoHeader
		}
		return nil, nil, 0, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var records [][]string
	skipped := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return nil, nil, skipped, err
		}
		if len(rec) > len(header) {
			skipped++
			continue
		}
		records = append(records, pad(rec, len(header)))
	}
	return header, records, skipped, nil
}

func newReader(data []byte, delim rune, lazy bool) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = lazy
	return r
}

func pad(rec []string, n int) []string {
	out := make([]string, n)
	copy(out, rec)
	return out
}

// sniffDelimiter picks the candidate that splits the leading lines into the most
// fields with a consistent count. Falls back to ','.
func sniffDelimiter(data []byte) rune {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	var sample []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		sample = append(sample, l)
		if len(sample) == 20 {
			break
		}
	}
	best, bestCount := ',', 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		count := -1
		consistent := true
		for _, l := range sample {
			c := strings.Count(l, string(cand))
			if count == -1 {
				count = c
			} else if c != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			best, bestCount = cand, count
		}
	}
	return best
}
