package text

import (
	"strings"
	"unicode/utf8"
)

// Style is a bit set of inline font variations
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Underline
)

// Span is text drawn with one style
type Span struct {
	Text  string
	Style Style
}

// Line is one wrapped line
type Line struct {
	Spans []Span
	Width float64
}

// Text returns the line without styling
func (l Line) Text() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// MeasureFunc returns the advance width of s drawn with st
type MeasureFunc func(s string, st Style) float64

// token is a piece of a word. Tokens without a leading space glue to the
// previous token so styled fragments of one word never break apart.
type token struct {
	text  string
	style Style
	space bool
}

// WrapSpans greedily breaks spans into lines no wider than maxWidth.
// A single word wider than maxWidth is broken between runes. An empty
// input produces one empty line.
func WrapSpans(spans []Span, maxWidth float64, measure MeasureFunc) []Line {
	words := groupWords(tokenize(spans))
	if len(words) == 0 {
		return []Line{{}}
	}

	var lines []Line
	cur := &lineBuilder{measure: measure}
	for _, w := range words {
		ww := cur.wordWidth(w)
		if cur.empty() {
			if maxWidth > 0 && ww > maxWidth {
				for _, piece := range breakWord(w, maxWidth, measure) {
					if !cur.empty() {
						lines = append(lines, cur.line())
						cur = &lineBuilder{measure: measure}
					}
					cur.add(piece, false)
				}
				continue
			}
			cur.add(w, false)
			continue
		}
		sp := measure(" ", w[0].style)
		if maxWidth <= 0 || cur.width+sp+ww <= maxWidth {
			cur.add(w, true)
			continue
		}
		lines = append(lines, cur.line())
		cur = &lineBuilder{measure: measure}
		if maxWidth > 0 && ww > maxWidth {
			for _, piece := range breakWord(w, maxWidth, measure) {
				if !cur.empty() {
					lines = append(lines, cur.line())
					cur = &lineBuilder{measure: measure}
				}
				cur.add(piece, false)
			}
			continue
		}
		cur.add(w, false)
	}
	if !cur.empty() {
		lines = append(lines, cur.line())
	}
	return lines
}

// Wrap breaks unstyled text into lines
func Wrap(s string, maxWidth float64, width func(string) float64) []string {
	lines := WrapSpans([]Span{{Text: s}}, maxWidth, func(t string, _ Style) float64 { return width(t) })
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}

type lineBuilder struct {
	measure MeasureFunc
	spans   []Span
	width   float64
}

func (b *lineBuilder) empty() bool { return len(b.spans) == 0 }

func (b *lineBuilder) wordWidth(w []token) float64 {
	total := 0.0
	for _, t := range w {
		total += b.measure(t.text, t.style)
	}
	return total
}

func (b *lineBuilder) add(w []token, leadingSpace bool) {
	for i, t := range w {
		txt := t.text
		if i == 0 && leadingSpace {
			txt = " " + txt
			b.width += b.measure(" ", t.style)
		}
		b.width += b.measure(t.text, t.style)
		if n := len(b.spans); n > 0 && b.spans[n-1].Style == t.style {
			b.spans[n-1].Text += txt
			continue
		}
		b.spans = append(b.spans, Span{Text: txt, Style: t.style})
	}
}

func (b *lineBuilder) line() Line {
	return Line{Spans: b.spans, Width: b.width}
}

func tokenize(spans []Span) []token {
	var toks []token
	pendingSpace := false
	for _, sp := range spans {
		fields := strings.Split(sp.Text, " ")
		for i, f := range fields {
			if i > 0 {
				pendingSpace = true
			}
			if f == "" {
				continue
			}
			toks = append(toks, token{text: f, style: sp.Style, space: pendingSpace})
			pendingSpace = false
		}
	}
	return toks
}

func groupWords(toks []token) [][]token {
	var words [][]token
	for i, t := range toks {
		if i == 0 || t.space {
			words = append(words, []token{t})
			continue
		}
		words[len(words)-1] = append(words[len(words)-1], t)
	}
	return words
}

// breakWord splits an overlong word into pieces that each fit maxWidth,
// keeping at least one rune per piece.
func breakWord(w []token, maxWidth float64, measure MeasureFunc) [][]token {
	var pieces [][]token
	var cur []token
	width := 0.0
	for _, t := range w {
		s := t.text
		for len(s) > 0 {
			_, size := utf8.DecodeRuneInString(s)
			r := s[:size]
			rw := measure(r, t.style)
			if width+rw > maxWidth && width > 0 {
				pieces = append(pieces, cur)
				cur, width = nil, 0
			}
			if n := len(cur); n > 0 && cur[n-1].style == t.style {
				cur[n-1].text += r
			} else {
				cur = append(cur, token{text: r, style: t.style})
			}
			width += rw
			s = s[size:]
		}
	}
	if len(cur) > 0 {
		pieces = append(pieces, cur)
	}
	return pieces
}
