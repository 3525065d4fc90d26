// Package numfmt parses and formats numeric values in Brazilian locale
// conventions: comma decimal separator, dot thousands separator, R$ currency.
// It is the single source of truth for the currency and percentage strings
// used by handlers and exported reports.
package numfmt

import (
	"math"
	"strconv"
	"strings"
)

// SanitizeNumber parses a possibly locale-formatted numeric string such as
// "R$ 1.234,56" or "-12,5%". Currency symbols, spaces and thousands
// separators are stripped, the decimal comma is normalized to a dot, and the
// remainder is parsed as a float. The second return value is false when the
// input does not contain a finite number; callers must treat that as invalid
// input, never as zero.
func SanitizeNumber(raw string) (float64, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '-':
			b.WriteRune(r)
		}
	}

	cleaned := strings.ReplaceAll(b.String(), ",", ".")
	if cleaned == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// FormatCurrency renders a value as Brazilian reais, e.g. 1234.56 becomes
// "R$ 1.234,56" and -100 becomes "-R$ 100,00". Non-finite values render as
// zero; the function never fails.
func FormatCurrency(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	if value < 0 {
		return "-R$ " + formatFixed(-value, 2)
	}
	return "R$ " + formatFixed(value, 2)
}

// FormatPercentage renders a value as a pt-BR percentage with two decimals,
// e.g. 20 becomes "20,00%". Non-finite values render as zero.
func FormatPercentage(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	if value < 0 {
		return "-" + formatFixed(-value, 2) + "%"
	}
	return formatFixed(value, 2) + "%"
}

// RoundToPrecision rounds half away from zero to the given number of decimal
// places.
func RoundToPrecision(value float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(value*factor) / factor
}

// formatFixed renders a non-negative value with the given decimal places,
// dot-grouped thousands and a comma decimal separator.
func formatFixed(value float64, precision int) string {
	s := strconv.FormatFloat(value, 'f', precision, 64)

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var grouped strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}

	if fracPart == "" {
		return grouped.String()
	}
	return grouped.String() + "," + fracPart
}
