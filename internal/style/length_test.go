package style

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"16px", 16},
		{"12", 12},
		{"1.5cm", 56.69},
		{"1cm", 37.80},
		{"10mm", 37.80},
		{"10pt", 13.33},
		{"9pt", 12},
		{"1in", 96},
		{"2em", 24},
		{"1rem", 16},
		{" 3 PX ", 3},
	}
	for _, c := range cases {
		got, err := ParseLength(c.in, 12)
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.in, err)
			continue
		}
		if !approx(got, c.want) {
			t.Errorf("%q: got %.2f want %.2f", c.in, got, c.want)
		}
	}
}

func TestParseLengthInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "cm", "1.2.3px"} {
		if _, err := ParseLength(in, 16); !errors.Is(err, ErrInvalidLength) {
			t.Errorf("%q: expected ErrInvalidLength, got %v", in, err)
		}
	}
	if got := LengthOr("bogus", 16, 7); got != 7 {
		t.Errorf("LengthOr fallback: got %v", got)
	}
}

func TestFontHelpers(t *testing.T) {
	if got := FontSizePx("11pt"); !approx(got, 14.67) {
		t.Errorf("FontSizePx(11pt) = %.2f", got)
	}
	if got := FontSizePx(""); got != DefaultFontPx {
		t.Errorf("empty font size should default, got %v", got)
	}
	if got := PrimaryFamily("'Times New Roman', serif"); got != "Times New Roman" {
		t.Errorf("PrimaryFamily = %q", got)
	}
	if CoreFont("Arial, sans-serif") != "Helvetica" || CoreFont("Times New Roman, serif") != "Times" {
		t.Error("CoreFont mapping wrong")
	}
	if !IsSerif("Times New Roman") || IsSerif("Arial") {
		t.Error("IsSerif mapping wrong")
	}
}
