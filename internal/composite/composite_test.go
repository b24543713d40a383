package composite

import (
	"testing"

	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/pagination"
)

func contentPages(n int, tag string) []pagination.Page {
	pages := make([]pagination.Page, n)
	for i := range pages {
		b := content.NewFreeResponse(i+1, tag)
		pages[i] = pagination.Page{Blocks: []content.Block{b}, ColumnStarts: []int{0}}
	}
	return pages
}

func kinds(doc Document) []SheetKind {
	out := make([]SheetKind, len(doc.Sheets))
	for i, s := range doc.Sheets {
		out[i] = s.Kind
	}
	return out
}

func TestPaddingLaw(t *testing.T) {
	policy := config.PolicyFor("Simulado Enem")
	for n := 1; n <= 20; n++ {
		doc := Assemble(contentPages(n, "A"), policy)
		if doc.Total%SheetMultiple != 0 {
			t.Errorf("n=%d: total %d not a multiple of 4", n, doc.Total)
		}
		if doc.Total < n+2 || doc.Total-SheetMultiple >= n+2 {
			t.Errorf("n=%d: total %d is not the smallest multiple", n, doc.Total)
		}
		if doc.ContentPages != n || doc.ExtraPages != doc.Total-n {
			t.Errorf("n=%d: counts %+v", n, doc)
		}
		if doc.Sheets[0].Kind != SheetCover || doc.Sheets[doc.Total-1].Kind != SheetBack {
			t.Errorf("n=%d: cover/back misplaced %v", n, kinds(doc))
		}
		for i, s := range doc.Sheets {
			if s.Number != i+1 {
				t.Errorf("n=%d: sheet %d numbered %d", n, i, s.Number)
			}
		}
	}
}

func TestThreeContentPages(t *testing.T) {
	doc := Assemble(contentPages(3, "A"), config.PolicyFor("Simuladinho"))
	want := []SheetKind{SheetCover, SheetContent, SheetContent, SheetContent, SheetBlank, SheetBlank, SheetBlank, SheetBack}
	got := kinds(doc)
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestEmptyComposite(t *testing.T) {
	for _, pages := range [][]pagination.Page{nil, {{}}} {
		doc := Assemble(pages, config.PolicyFor("Simulado Tradicional"))
		if doc.Total != 4 || doc.ContentPages != 0 {
			t.Errorf("expected 4 sheets, got %v", kinds(doc))
		}
		if doc.Sheets[1].Kind != SheetBlank || doc.Sheets[2].Kind != SheetBlank {
			t.Errorf("expected two blank sheets, got %v", kinds(doc))
		}
	}
}

func TestSingleSubjectPassThrough(t *testing.T) {
	doc := Assemble(contentPages(3, ""), config.PolicyFor("Prova Global"))
	if doc.Total != 3 || doc.Composite || doc.ExtraPages != 0 {
		t.Errorf("unexpected document %+v", doc)
	}
	empty := Assemble([]pagination.Page{{}}, config.PolicyFor("Prova Global"))
	if empty.Total != 1 || empty.Sheets[0].Kind != SheetContent {
		t.Errorf("empty single-subject should keep one empty page: %v", kinds(empty))
	}
	if empty.FirstContentSheet() != 0 {
		t.Errorf("FirstContentSheet = %d", empty.FirstContentSheet())
	}
}

func TestPreviousTag(t *testing.T) {
	pages := append(contentPages(1, "Português"), contentPages(1, "Matemática")...)
	doc := Assemble(pages, config.PolicyFor("Simulado Enem"))
	if got := doc.PreviousTag(1); got != "" {
		t.Errorf("first content sheet should have no previous tag, got %q", got)
	}
	if got := doc.PreviousTag(2); got != "Português" {
		t.Errorf("PreviousTag(2) = %q", got)
	}
	if got := doc.PreviousTag(doc.Total - 1); got != "Matemática" {
		t.Errorf("back sheet previous tag = %q", got)
	}
}
