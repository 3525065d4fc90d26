package numfmt

import (
	"math"
	"testing"
)

func TestSanitizeNumber_LocaleFormats(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"1234,56", 1234.56},
		{"R$ 1.234,56", 1234.56},
		{"1.234.567,89", 1234567.89},
		{"-100", -100},
		{"-R$ 12,50", -12.50},
		{"42", 42},
		{"0,01", 0.01},
	}

	for _, tc := range cases {
		got, ok := SanitizeNumber(tc.input)
		if !ok {
			t.Fatalf("SanitizeNumber(%q) reported invalid", tc.input)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("SanitizeNumber(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestSanitizeNumber_RejectsInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "R$", ",", "--5", "1,2,3", "-"} {
		if _, ok := SanitizeNumber(input); ok {
			t.Fatalf("SanitizeNumber(%q) reported valid, want invalid", input)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{1234.56, "R$ 1.234,56"},
		{-100, "-R$ 100,00"},
		{0, "R$ 0,00"},
		{20, "R$ 20,00"},
		{1234567.891, "R$ 1.234.567,89"},
		{math.NaN(), "R$ 0,00"},
		{math.Inf(1), "R$ 0,00"},
	}

	for _, tc := range cases {
		if got := FormatCurrency(tc.value); got != tc.want {
			t.Fatalf("FormatCurrency(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestFormatPercentage(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{20, "20,00%"},
		{-5, "-5,00%"},
		{0, "0,00%"},
		{33.333, "33,33%"},
		{1000, "1.000,00%"},
	}

	for _, tc := range cases {
		if got := FormatPercentage(tc.value); got != tc.want {
			t.Fatalf("FormatPercentage(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestRoundToPrecision(t *testing.T) {
	cases := []struct {
		value     float64
		precision int
		want      float64
	}{
		{0.125, 2, 0.13},
		{1.2345, 2, 1.23},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{10, 0, 10},
		{123.456, 1, 123.5},
	}

	for _, tc := range cases {
		got := RoundToPrecision(tc.value, tc.precision)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("RoundToPrecision(%v, %d) = %v, want %v", tc.value, tc.precision, got, tc.want)
		}
	}
}
