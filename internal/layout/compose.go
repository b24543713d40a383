package layout

import (
	"fmt"
	"strings"

	"github.com/gompdf/gomprova/internal/composite"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/measure"
)

// ItemKind identifies what an Item draws
type ItemKind int

const (
	ItemBlock ItemKind = iota
	ItemGroupTitle
	ItemText
	ItemLogo
	ItemRule
)

// Align is the horizontal alignment of text items
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Item is a positioned element of a sheet, in sheet pixels
type Item struct {
	Kind   ItemKind
	Block  content.Block
	Column int

	Text   string
	FontPx float64
	Bold   bool
	Align  Align
	// Accent marks text drawn in the highlight colour
	Accent bool

	ImageRef string

	X, Y, W, H float64
}

// Sheet is one laid out page ready for capture
type Sheet struct {
	Kind   composite.SheetKind
	Number int
	Total  int
	Width  float64
	Height float64
	// Frame is the measurement frame blocks were laid out in
	Frame measure.Frame
	Items []Item
}

// Blocks returns the block items in drawing order
func (s Sheet) Blocks() []Item {
	var out []Item
	for _, it := range s.Items {
		if it.Kind == ItemBlock {
			out = append(out, it)
		}
	}
	return out
}

// FooterText is the page counter line
func FooterText(school string, n, total int) string {
	if school == "" {
		school = DefaultSchool
	}
	return fmt.Sprintf("%s | Página %d de %d", school, n, total)
}

// Compose positions the chrome and blocks of every sheet. Blocks are stacked
// per column as paginated; Compose makes no pagination decisions.
func Compose(doc composite.Document, heights measure.Heights, p Params, c Chrome) []Sheet {
	g := p.Geometry()
	frame := p.Frame()
	headerSheet := -1
	if p.Policy.FirstPageHeader {
		headerSheet = doc.FirstContentSheet()
	}

	sheets := make([]Sheet, 0, len(doc.Sheets))
	for i, src := range doc.Sheets {
		s := Sheet{
			Kind:   src.Kind,
			Number: src.Number,
			Total:  doc.Total,
			Width:  g.Width,
			Height: g.Height,
			Frame:  frame,
		}
		cb := &composer{g: g, c: c, p: p, sheet: &s}
		switch src.Kind {
		case composite.SheetCover:
			cb.cover()
		case composite.SheetBack:
			cb.back()
		case composite.SheetContent:
			top := g.PaddingY
			if i == headerSheet {
				top += cb.header()
			}
			cb.content(src, top, heights, doc.PreviousTag(i))
		}
		cb.footer()
		sheets = append(sheets, s)
	}
	return sheets
}

type composer struct {
	g     Geometry
	c     Chrome
	p     Params
	sheet *Sheet
}

func (cb *composer) add(it Item) {
	cb.sheet.Items = append(cb.sheet.Items, it)
}

func (cb *composer) text(s string, px float64, bold bool, align Align, x, y, w float64) {
	cb.add(Item{Kind: ItemText, Text: s, FontPx: px, Bold: bold, Align: align, X: x, Y: y, W: w, H: px * measure.LineHeightFactor})
}

// header lays out the logo row and metadata row and returns its height
func (cb *composer) header() float64 {
	g, c, p := cb.g, cb.c, cb.p
	x, y, w := g.PaddingX, g.PaddingY, g.ContentWidth()

	cb.add(Item{Kind: ItemLogo, ImageRef: p.LogoURL, Text: "Logo", X: x, Y: y, W: c.LogoSize, H: c.LogoSize})
	titleY := y + (c.LogoSize-(c.TitlePx+c.SubtitlePx)*measure.LineHeightFactor)/2
	cb.add(Item{Kind: ItemText, Text: p.Template, FontPx: c.TitlePx, Bold: true, Accent: true, Align: AlignRight,
		X: x, Y: titleY, W: w, H: c.TitlePx * measure.LineHeightFactor})
	cb.text(p.Category, c.SubtitlePx, false, AlignRight, x, titleY+c.TitlePx*measure.LineHeightFactor, w)

	ry := y + c.LogoSize + c.Gap
	cb.add(Item{Kind: ItemRule, X: x, Y: ry, W: w, H: c.Rule})
	my := ry + c.Rule + c.Gap
	fields := []string{
		"Aluno(a): _________________________________________",
		"Série: " + p.Grade,
		"Turma: " + p.Class,
		"Data: ____/____/______",
	}
	cell := w / float64(len(fields))
	for i, f := range fields {
		align := AlignCenter
		switch i {
		case 0:
			align = AlignLeft
		case len(fields) - 1:
			align = AlignRight
		}
		cb.text(f, c.MetaPx, false, align, x+float64(i)*cell, my, cell)
	}
	by := my + c.metaRow() + c.Gap
	cb.add(Item{Kind: ItemRule, X: x, Y: by, W: w, H: c.Rule})
	return c.HeaderHeight()
}

func (cb *composer) content(src composite.Sheet, top float64, heights measure.Heights, prevTag string) {
	cols := src.Page.Columns()
	columns := cb.p.Policy.Columns
	colW := cb.g.ColumnWidth(columns)
	margin := measure.DefaultBlockMargin
	for ci, col := range cols {
		x := cb.g.ColumnX(ci, columns)
		y := top
		for _, b := range col {
			if measure.NeedsGroupHeader(prevTag, b.Subject, cb.p.Policy.Grouping) {
				cb.add(Item{Kind: ItemGroupTitle, Text: strings.ToUpper(b.Subject), FontPx: cb.c.GroupTitlePx, Bold: true,
					Align: AlignCenter, Column: ci, X: x, Y: y, W: colW, H: cb.c.GroupHeaderHeight})
				y += cb.c.GroupHeaderHeight
			}
			h := heights[b.ID]
			cb.add(Item{Kind: ItemBlock, Block: b, Column: ci, X: x, Y: y, W: colW, H: h})
			y += h + margin
			prevTag = b.Subject
		}
	}
}

func (cb *composer) cover() {
	g, p := cb.g, cb.p
	x, w := g.PaddingX, g.ContentWidth()
	y := g.Height * 0.3
	cb.text(p.Template, 36, true, AlignCenter, x, y, w)
	y += 36*measure.LineHeightFactor + 16
	cb.text("Simulado Multidisciplinar", 24, false, AlignCenter, x, y, w)
	y += 24*measure.LineHeightFactor + 48
	cb.text("Série: "+p.Grade, 18, false, AlignCenter, x, y, w)
	y += 18 * measure.LineHeightFactor
	cb.text("Turma: "+p.Class, 18, false, AlignCenter, x, y, w)
}

func (cb *composer) back() {
	g, c, p := cb.g, cb.c, cb.p
	y := g.Height * 0.4
	if p.LogoURL != "" {
		cb.add(Item{Kind: ItemLogo, ImageRef: p.LogoURL, X: (g.Width - c.LogoSize) / 2, Y: y, W: c.LogoSize, H: c.LogoSize})
	}
	y += c.LogoSize + 32
	cb.text("BOA PROVA!", 24, false, AlignCenter, g.PaddingX, y, g.ContentWidth())
}

func (cb *composer) footer() {
	g, c, p := cb.g, cb.c, cb.p
	h := c.FooterHeight()
	y := g.Height - g.PaddingY - h
	cb.add(Item{Kind: ItemRule, X: g.PaddingX, Y: y, W: g.ContentWidth(), H: c.Rule})
	cb.text(FooterText(p.School, cb.sheet.Number, cb.sheet.Total), c.FooterPx, false, AlignCenter,
		g.PaddingX, y+c.Rule+c.Gap, g.ContentWidth())
}
