package measure

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/parser/html"
	"github.com/gompdf/gomprova/internal/parser/markdown"
	"github.com/gompdf/gomprova/internal/text"
)

// Metrics supplies advance widths, in pixels, for the frame's font
type Metrics interface {
	TextWidth(s string, st text.Style) float64
}

// ImageSizer resolves the intrinsic pixel size of an image reference
type ImageSizer interface {
	ImageSize(ctx context.Context, ref string) (int, int, error)
}

// RowKind identifies what a Row draws
type RowKind int

const (
	RowTitle RowKind = iota
	RowImage
	RowParagraph
	RowOption
	RowStatement
	RowAnswerLine
)

// Block box constants, in pixels unless noted
const (
	LineHeightFactor  = 1.5
	TitleGap          = 4.0
	ImageMargin       = 8.0
	ParagraphGapEm    = 0.5
	ListTop           = 8.0
	OptionGap         = 4.0
	OptionIndent      = 20.0
	StatementGap      = 8.0
	MarkerGap         = 8.0
	AnswerTop         = 16.0
	AnswerLinePitch   = 24.0
	BrokenImageHeight = 20.0
)

// Row is one vertically stacked element of a laid out block
type Row struct {
	Kind   RowKind
	Y      float64
	Height float64
	// Indent is where Lines start, relative to the block's left edge
	Indent float64
	Marker string
	Lines  []text.Line

	ImageRef string
	ImageW   float64
	ImageH   float64
	Broken   bool
}

// Flow is a block laid out in a frame. Renderers draw Rows as positioned;
// Height is what pagination consumes.
type Flow struct {
	Rows       []Row
	Width      float64
	Height     float64
	LineHeight float64
}

// LineHeight returns the line pitch for a font size
func LineHeight(fontPx float64) float64 {
	return fontPx * LineHeightFactor
}

// Layout stacks the rows of b in frame f. images may be nil, in which case
// every image is treated as broken.
func Layout(ctx context.Context, b content.Block, f Frame, m Metrics, images ImageSizer) (Flow, error) {
	lh := LineHeight(f.FontSizePx)
	fl := &flowBuilder{flow: Flow{Width: f.Width, LineHeight: lh}}

	title := text.Line{Spans: []text.Span{{Text: fmt.Sprintf("Questão %d", b.Number), Style: text.Bold}}}
	title.Width = m.TextWidth(title.Spans[0].Text, text.Bold)
	fl.push(Row{Kind: RowTitle, Height: lh, Lines: []text.Line{title}})
	fl.gap(TitleGap)

	if b.ImageURL != "" {
		row, err := imageRow(ctx, b.ImageURL, f.Width, images)
		if err != nil {
			return Flow{}, err
		}
		fl.gap(ImageMargin)
		fl.push(row)
		fl.gap(ImageMargin)
	}

	for i, para := range paragraphs(b.Statement) {
		if i > 0 {
			fl.gap(ParagraphGapEm * f.FontSizePx)
		}
		lines := text.WrapSpans(para, f.Width, m.TextWidth)
		fl.push(Row{Kind: RowParagraph, Height: float64(len(lines)) * lh, Lines: lines})
	}

	switch b.Kind {
	case content.KindSingleChoice:
		for i, o := range b.Options {
			if i == 0 {
				fl.gap(ListTop)
			} else {
				fl.gap(OptionGap)
			}
			lines := text.WrapSpans([]text.Span{{Text: o.Text}}, f.Width-OptionIndent, m.TextWidth)
			fl.push(Row{Kind: RowOption, Height: float64(len(lines)) * lh, Indent: OptionIndent, Marker: OptionMarker(i), Lines: lines})
		}
	case content.KindTrueFalse:
		indent := m.TextWidth(StatementMarker, 0) + MarkerGap
		for i, s := range b.Statements {
			if i == 0 {
				fl.gap(ListTop)
			} else {
				fl.gap(StatementGap)
			}
			lines := text.WrapSpans([]text.Span{{Text: s.Text}}, f.Width-indent, m.TextWidth)
			fl.push(Row{Kind: RowStatement, Height: float64(len(lines)) * lh, Indent: indent, Marker: StatementMarker, Lines: lines})
		}
	case content.KindFreeResponse:
		if b.AnswerLines > 0 {
			fl.gap(AnswerTop)
			for i := 0; i < b.AnswerLines; i++ {
				fl.push(Row{Kind: RowAnswerLine, Height: AnswerLinePitch})
			}
		}
	}

	return fl.flow, nil
}

// StatementMarker prefixes every true-false statement
const StatementMarker = "( )"

// OptionMarker returns the lower-alpha marker for option i
func OptionMarker(i int) string {
	if i < 26 {
		return string(rune('a'+i)) + ")"
	}
	return fmt.Sprintf("%d)", i+1)
}

type flowBuilder struct {
	flow    Flow
	pending float64
}

// gap adds vertical space before the next row; trailing gaps are dropped
func (fb *flowBuilder) gap(h float64) {
	fb.pending += h
}

func (fb *flowBuilder) push(r Row) {
	fb.flow.Height += fb.pending
	fb.pending = 0
	r.Y = fb.flow.Height
	fb.flow.Height += r.Height
	fb.flow.Rows = append(fb.flow.Rows, r)
}

func imageRow(ctx context.Context, ref string, width float64, images ImageSizer) (Row, error) {
	broken := Row{Kind: RowImage, Height: BrokenImageHeight, ImageRef: ref, ImageW: BrokenImageHeight, ImageH: BrokenImageHeight, Broken: true}
	if images == nil {
		return broken, nil
	}
	w, h, err := images.ImageSize(ctx, ref)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Row{}, err
		}
		return broken, nil
	}
	if w <= 0 || h <= 0 {
		return broken, nil
	}
	iw, ih := float64(w), float64(h)
	if width > 0 && iw > width {
		ih = ih * width / iw
		iw = width
	}
	ih = math.Round(ih*100) / 100
	return Row{Kind: RowImage, Height: ih, ImageRef: ref, ImageW: iw, ImageH: ih}, nil
}

var (
	statementConverter = markdown.NewConverter()
	fragmentParser     = html.NewParser()
)

// paragraphs converts a Markdown statement into styled spans, one slice per
// paragraph. An empty statement still takes one line.
func paragraphs(statement string) [][]text.Span {
	fragment, err := statementConverter.ToHTML(statement)
	if err != nil {
		fragment = statement
	}
	paras, err := fragmentParser.ParseString(fragment)
	if err != nil || len(paras) == 0 {
		return [][]text.Span{{{Text: statement}}}
	}
	out := make([][]text.Span, len(paras))
	for i, p := range paras {
		spans := make([]text.Span, 0, len(p.Runs))
		for _, r := range p.Runs {
			var st text.Style
			if r.Bold {
				st |= text.Bold
			}
			if r.Italic {
				st |= text.Italic
			}
			if r.Underline {
				st |= text.Underline
			}
			spans = append(spans, text.Span{Text: r.Text, Style: st})
		}
		out[i] = spans
	}
	return out
}
