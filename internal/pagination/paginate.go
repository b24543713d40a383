package pagination

import (
	"fmt"

	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/measure"
)

// Page represents a single sheet's content, excluding chrome
type Page struct {
	Blocks []content.Block
	// ColumnStarts holds the index into Blocks where each used column
	// begins. It is empty for an empty page.
	ColumnStarts []int
}

// Empty reports whether the page holds no blocks
func (p Page) Empty() bool { return len(p.Blocks) == 0 }

// Columns splits the page's blocks by column
func (p Page) Columns() [][]content.Block {
	cols := make([][]content.Block, 0, len(p.ColumnStarts))
	for i, start := range p.ColumnStarts {
		end := len(p.Blocks)
		if i+1 < len(p.ColumnStarts) {
			end = p.ColumnStarts[i+1]
		}
		cols = append(cols, p.Blocks[start:end])
	}
	return cols
}

// LastTag returns the grouping tag of the page's last block
func (p Page) LastTag() string {
	if len(p.Blocks) == 0 {
		return ""
	}
	return p.Blocks[len(p.Blocks)-1].Subject
}

// paginator is the state of one walk over the block list
type paginator struct {
	limits   [2]float64
	columns  int
	spacing  measure.Spacing
	pages    []Page
	cur      Page
	column   int
	total    float64
	inColumn int
	prevTag  string
}

// Paginate partitions blocks into pages without reordering or splitting
// them. A block that does not fit the column being filled starts the next
// column, or a new page when the page has no column left. A block that
// overflows an empty column stays there alone. Empty input yields a single
// empty page.
func (e *Engine) Paginate(blocks []content.Block, heights measure.Heights) ([]Page, error) {
	first, other := e.Limits()
	p := &paginator{
		limits:  [2]float64{first, other},
		columns: e.options.Columns,
		spacing: e.Spacing(),
	}
	if p.columns < 1 {
		p.columns = 1
	}

	for _, b := range blocks {
		h, ok := heights[b.ID]
		if !ok {
			return nil, fmt.Errorf("%w: block %d (%s)", ErrMissingHeight, b.Number, b.ID)
		}
		p.place(b, measure.Contribution(p.spacing, h, p.prevTag, b.Subject))
	}

	if !p.cur.Empty() {
		p.pages = append(p.pages, p.cur)
	}
	if len(p.pages) == 0 {
		p.pages = []Page{{}}
	}
	return p.pages, nil
}

func (p *paginator) limit() float64 {
	if len(p.pages) == 0 {
		return p.limits[0]
	}
	return p.limits[1]
}

func (p *paginator) place(b content.Block, contribution float64) {
	if p.total+contribution > p.limit() && p.inColumn > 0 {
		if p.column+1 < p.columns {
			p.column++
		} else {
			p.pages = append(p.pages, p.cur)
			p.cur = Page{}
			p.column = 0
		}
		p.total = 0
		p.inColumn = 0
	}
	if p.inColumn == 0 {
		p.cur.ColumnStarts = append(p.cur.ColumnStarts, len(p.cur.Blocks))
	}
	p.cur.Blocks = append(p.cur.Blocks, b)
	p.total += contribution
	p.inColumn++
	p.prevTag = b.Subject
}

// Flatten concatenates the blocks of pages in order
func Flatten(pages []Page) []content.Block {
	var out []content.Block
	for _, p := range pages {
		out = append(out, p.Blocks...)
	}
	return out
}
