package style

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CSS reference pixel conversions at 96dpi
const (
	PxPerInch = 96.0
	PxPerPt   = PxPerInch / 72
	PxPerCm   = PxPerInch / 2.54
	PxPerMm   = PxPerCm / 10

	// DefaultFontPx is the browser default font size
	DefaultFontPx = 16.0
)

var ErrInvalidLength = errors.New("invalid length")

// ParseLength converts a CSS-like length to pixels. Unitless values are
// pixels; em is relative to fontPx and rem to DefaultFontPx.
func ParseLength(value string, fontPx float64) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidLength)
	}
	if fontPx <= 0 {
		fontPx = DefaultFontPx
	}

	units := []struct {
		suffix string
		factor float64
	}{
		{"rem", DefaultFontPx},
		{"px", 1},
		{"pt", PxPerPt},
		{"cm", PxPerCm},
		{"mm", PxPerMm},
		{"in", PxPerInch},
		{"em", fontPx},
	}
	for _, u := range units {
		if strings.HasSuffix(v, u.suffix) {
			n, err := strconv.ParseFloat(strings.TrimSpace(v[:len(v)-len(u.suffix)]), 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidLength, value)
			}
			return n * u.factor, nil
		}
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLength, value)
	}
	return n, nil
}

// LengthOr is ParseLength returning def when value cannot be parsed.
func LengthOr(value string, fontPx, def float64) float64 {
	px, err := ParseLength(value, fontPx)
	if err != nil {
		return def
	}
	return px
}

// FontSizePx resolves a font-size declaration against the default size.
func FontSizePx(value string) float64 {
	px := LengthOr(value, DefaultFontPx, DefaultFontPx)
	if px <= 0 {
		return DefaultFontPx
	}
	return px
}

// PrimaryFamily returns the first family of a font-family list, unquoted
func PrimaryFamily(value string) string {
	first := strings.Split(value, ",")[0]
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(first), "'\""))
}

// CoreFont maps a font-family list to a PDF core font family.
func CoreFont(value string) string {
	switch strings.ToLower(PrimaryFamily(value)) {
	case "times", "times new roman", "serif", "georgia":
		return "Times"
	case "courier", "courier new", "monospace":
		return "Courier"
	}
	return "Helvetica"
}

// IsSerif reports whether a font-family list resolves to a serif face
func IsSerif(value string) bool {
	return CoreFont(value) == "Times"
}
