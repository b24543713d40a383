package layout

import "github.com/gompdf/gomprova/internal/measure"

// Chrome sizes the header, footer and group titles. Sizes are fixed pixel
// values and do not follow the template font size.
type Chrome struct {
	LogoSize          float64
	TitlePx           float64
	SubtitlePx        float64
	MetaPx            float64
	FooterPx          float64
	Rule              float64
	Gap               float64
	GroupHeaderHeight float64
	GroupTitlePx      float64
}

// DefaultChrome returns the standard exam sheet chrome
func DefaultChrome() Chrome {
	return Chrome{
		LogoSize:          80,
		TitlePx:           20,
		SubtitlePx:        14,
		MetaPx:            10,
		FooterPx:          12,
		Rule:              1,
		Gap:               8,
		GroupHeaderHeight: measure.DefaultGroupHeaderHeight,
		GroupTitlePx:      18,
	}
}

// HeaderHeight is the logo row, the metadata row and the space below them
func (c Chrome) HeaderHeight() float64 {
	return c.LogoSize + c.Gap + c.Rule + c.Gap + c.metaRow() + c.Gap + c.Rule + 2*c.Gap
}

// FooterHeight is the rule and the page counter line
func (c Chrome) FooterHeight() float64 {
	return c.Rule + c.Gap + c.FooterPx*measure.LineHeightFactor
}

func (c Chrome) metaRow() float64 {
	return c.MetaPx * measure.LineHeightFactor
}
