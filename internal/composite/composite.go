package composite

import (
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/pagination"
)

// SheetKind identifies what a physical sheet shows
type SheetKind int

const (
	SheetContent SheetKind = iota
	SheetCover
	SheetBlank
	SheetBack
)

func (k SheetKind) String() string {
	switch k {
	case SheetCover:
		return "cover"
	case SheetBlank:
		return "blank"
	case SheetBack:
		return "back"
	}
	return "content"
}

const (
	// SheetMultiple is the sheet count composite documents are padded to
	SheetMultiple = 4
	// EmptyBlankPages is the fixed number of blank content sheets of an
	// empty composite document
	EmptyBlankPages = 2
)

// Sheet is one physical page of the final document
type Sheet struct {
	Kind SheetKind
	Page pagination.Page
	// Number is the 1-based position shown in the footer
	Number int
}

// Document is the ordered sheet set handed to layout, preview and export
type Document struct {
	Sheets       []Sheet
	ContentPages int
	// ExtraPages counts generated sheets: cover, back and padding
	ExtraPages int
	Total      int
	Composite  bool
}

// RequiredTotal is the smallest multiple of SheetMultiple that holds n
// content pages plus cover and back.
func RequiredTotal(n int) int {
	return (n + 2 + SheetMultiple - 1) / SheetMultiple * SheetMultiple
}

// Assemble turns paginated content into sheets. Single-subject documents
// pass through. Composite documents gain a cover and a back sheet, with
// blank sheets appended before the back until the total is a multiple of
// SheetMultiple.
func Assemble(pages []pagination.Page, policy config.Policy) Document {
	if !policy.Composite {
		doc := Document{ContentPages: len(pages)}
		for _, p := range pages {
			doc.add(SheetContent, p)
		}
		doc.Total = len(doc.Sheets)
		return doc
	}

	content := nonEmpty(pages)
	blanks := RequiredTotal(len(content)) - len(content) - 2
	if len(content) == 0 {
		blanks = EmptyBlankPages
	}

	doc := Document{Composite: true, ContentPages: len(content), ExtraPages: blanks + 2}
	doc.add(SheetCover, pagination.Page{})
	for _, p := range content {
		doc.add(SheetContent, p)
	}
	for i := 0; i < blanks; i++ {
		doc.add(SheetBlank, pagination.Page{})
	}
	doc.add(SheetBack, pagination.Page{})
	doc.Total = len(doc.Sheets)
	return doc
}

func (d *Document) add(kind SheetKind, p pagination.Page) {
	d.Sheets = append(d.Sheets, Sheet{Kind: kind, Page: p, Number: len(d.Sheets) + 1})
}

func nonEmpty(pages []pagination.Page) []pagination.Page {
	out := make([]pagination.Page, 0, len(pages))
	for _, p := range pages {
		if !p.Empty() {
			out = append(out, p)
		}
	}
	return out
}

// PreviousTag returns the grouping tag of the last block placed before
// sheet i, or "" when no block precedes it.
func (d Document) PreviousTag(i int) string {
	for j := i - 1; j >= 0; j-- {
		if j < len(d.Sheets) && !d.Sheets[j].Page.Empty() {
			return d.Sheets[j].Page.LastTag()
		}
	}
	return ""
}

// FirstContentSheet returns the index of the first content sheet, or -1
func (d Document) FirstContentSheet() int {
	for i, s := range d.Sheets {
		if s.Kind == SheetContent {
			return i
		}
	}
	return -1
}
