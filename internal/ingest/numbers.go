package ingest

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are read as missing cells. Matching is case-sensitive.
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissingToken reports whether a trimmed token stands for a missing value.
// Infinities ("inf", "-Infinity", ...) count as missing like NaN does.
func IsMissingToken(s string) bool {
	if _, ok := missingTokens[s]; ok {
		return true
	}
	return isInfinity(s)
}

func isInfinity(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	return strings.EqualFold(s, "inf") || strings.EqualFold(s, "infinity")
}

// ParseNumber parses a locale-formatted number such as "1.234,5", "1,234.5",
// "12%" or "3e-2". With no configured separators, a lone separator followed
// by exactly three digits, or one that repeats, is read as a thousands
// separator; otherwise it is the decimal point.
func ParseNumber(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(raw, "%")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		dec, thou = detectSeparators(raw)
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if strings.Count(raw, ".") > 1 || strings.ContainsAny(raw, ",_xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func detectSeparators(raw string) (dec, thou rune) {
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0:
		if groupingOnly(raw, ",") {
			return '.', ','
		}
		return ',', '.'
	case dpos >= 0:
		if strings.Count(raw, ".") > 1 && groupingOnly(raw, ".") {
			return ',', '.'
		}
		return '.', ','
	}
	return '.', 0
}

// groupingOnly reports whether sep looks like a thousands separator: it
// repeats, or appears once followed by exactly three digits.
func groupingOnly(raw, sep string) bool {
	parts := strings.Split(raw, sep)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 || strings.Trim(p, "0123456789") != "" {
			return false
		}
	}
	return len(parts) > 2 || len(parts[1]) == 3
}
