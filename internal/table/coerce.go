package table

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// CoercionThreshold is the share of non-missing values that must parse as numbers
// before a text column is converted to numeric.
const CoercionThreshold = 0.8

// missingTokens are the cell spellings treated as absent at load time.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isMissingToken(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// parseStrict parses a plain float literal. Used for the initial kind decision and
// for weight coercion, where only well-formed numbers count.
func parseStrict(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseNumber parses a cell with the strict rules used at load time. Missing tokens
// and malformed numbers both yield ok == false.
func ParseNumber(s string) (float64, bool) {
	if isMissingToken(s) {
		return 0, false
	}
	return parseStrict(s)
}

var (
	separatorsAndCurrency = regexp.MustCompile(`[\s,₹$€£¥]`)
	nonNumericChars       = regexp.MustCompile(`[^0-9eE+\-.]`)
)

// parseLenient strips whitespace, thousands separators and currency symbols, then
// drops any remaining character that cannot be part of a float literal.
func parseLenient(s string) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00a0", " ")
	raw = separatorsAndCurrency.ReplaceAllString(raw, "")
	raw = nonNumericChars.ReplaceAllString(raw, "")
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// coerceText attempts the numeric-like conversion of a text column. It returns the
// converted values and true when at least CoercionThreshold of the non-missing cells
// parse; cells that fail become NaN.
func coerceText(vals []string) ([]float64, bool) {
	out := make([]float64, len(vals))
	present, parsed := 0, 0
	for i, v := range vals {
		out[i] = math.NaN()
		if v == "" {
			continue
		}
		present++
		if f, ok := parseLenient(v); ok {
			out[i] = f
			parsed++
		}
	}
	if present == 0 {
		return nil, false
	}
	if float64(parsed)/float64(present) < CoercionThreshold {
		return nil, false
	}
	return out, true
}
