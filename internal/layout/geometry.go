package layout

import (
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/pagination"
	"github.com/gompdf/gomprova/internal/style"
)

// A4 portrait in CSS pixels at 96dpi
const (
	A4Width          = 793.7
	A4Height         = pagination.DefaultPageHeight
	DefaultPaddingY  = pagination.DefaultPagePadding
	DefaultColumnGap = 24.0
)

// Geometry describes the printable area of a sheet
type Geometry struct {
	Width     float64
	Height    float64
	PaddingX  float64
	PaddingY  float64
	ColumnGap float64
}

// A4 returns an A4 geometry with the given horizontal padding
func A4(paddingX float64) Geometry {
	return Geometry{
		Width:     A4Width,
		Height:    A4Height,
		PaddingX:  paddingX,
		PaddingY:  DefaultPaddingY,
		ColumnGap: DefaultColumnGap,
	}
}

// ContentWidth is the width between the horizontal paddings
func (g Geometry) ContentWidth() float64 {
	w := g.Width - 2*g.PaddingX
	if w < 0 {
		return 0
	}
	return w
}

// ColumnWidth splits the content width into columns separated by ColumnGap
func (g Geometry) ColumnWidth(columns int) float64 {
	if columns < 1 {
		columns = 1
	}
	w := (g.ContentWidth() - float64(columns-1)*g.ColumnGap) / float64(columns)
	if w < 0 {
		return 0
	}
	return w
}

// ColumnX returns the left edge of column c
func (g Geometry) ColumnX(c, columns int) float64 {
	return g.PaddingX + float64(c)*(g.ColumnWidth(columns)+g.ColumnGap)
}

// Params carries everything about a document that affects its sheets
type Params struct {
	Template string
	Category string
	Grade    string
	Class    string
	LogoURL  string
	// School is printed in the footer
	School string
	Policy config.Policy
	Style  config.TemplateStyle
}

// DefaultSchool is the footer's placeholder school name
const DefaultSchool = "Nome do Colégio"

// NewParams resolves the policy and style of template from doc
func NewParams(template string, doc config.Document) Params {
	return Params{
		Template: template,
		LogoURL:  doc.LogoURL,
		School:   DefaultSchool,
		Policy:   config.PolicyFor(template),
		Style:    doc.Style(template),
	}
}

// FontPx is the template's base font size in pixels
func (p Params) FontPx() float64 {
	return style.FontSizePx(p.Style.FontSize)
}

// Geometry returns the sheet geometry for the template style
func (p Params) Geometry() Geometry {
	return A4(style.LengthOr(p.Style.Padding, p.FontPx(), 0))
}

// Frame is the measurement frame of one content column
func (p Params) Frame() measure.Frame {
	return measure.Frame{
		Width:      p.Geometry().ColumnWidth(p.Policy.Columns),
		FontSizePx: p.FontPx(),
		FontFamily: p.Style.FontFamily,
	}
}

// EngineOptions derives pagination options from the template policy and
// the chrome heights.
func (p Params) EngineOptions(c Chrome) pagination.Options {
	o := pagination.DefaultOptions()
	o.PageHeight = p.Geometry().Height
	o.PagePadding = p.Geometry().PaddingY
	o.FooterHeight = c.FooterHeight()
	if p.Policy.FirstPageHeader {
		o.HeaderHeight = c.HeaderHeight()
	}
	o.Columns = p.Policy.Columns
	o.Grouping = p.Policy.Grouping
	o.GroupHeaderHeight = c.GroupHeaderHeight
	return o
}
