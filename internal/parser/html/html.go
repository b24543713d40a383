package html

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Run is a stretch of text sharing one inline style
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Paragraph is one block-level line group of a rich text fragment
type Paragraph struct {
	Runs []Run
}

// Text returns the paragraph's plain text
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Parser turns editor produced fragments into paragraphs
type Parser struct{}

// NewParser creates a new fragment parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses a fragment from a string
func (p *Parser) ParseString(content string) ([]Paragraph, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses a fragment in a <body> context. Plain text without markup
// yields a single paragraph.
func (p *Parser) Parse(r io.Reader) ([]Paragraph, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	b := &builder{}
	for _, n := range nodes {
		b.walk(n, Run{})
	}
	b.flush(false)
	return b.paras, nil
}

type listContext struct {
	ordered bool
	counter int
}

type builder struct {
	paras []Paragraph
	runs  []Run
	lists []listContext
}

func (b *builder) walk(n *html.Node, st Run) {
	switch n.Type {
	case html.TextNode:
		b.text(n.Data, st)
		return
	case html.ElementNode:
	default:
		b.children(n, st)
		return
	}

	switch strings.ToLower(n.Data) {
	case "script", "style", "img", "head":
		return
	case "br":
		b.flush(true)
	case "b", "strong":
		st.Bold = true
		b.children(n, st)
	case "i", "em":
		st.Italic = true
		b.children(n, st)
	case "u":
		st.Underline = true
		b.children(n, st)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		st.Bold = true
		b.block(n, st)
	case "p", "div", "blockquote", "pre", "section":
		b.block(n, st)
	case "ul", "ol":
		b.flush(false)
		b.lists = append(b.lists, listContext{ordered: strings.EqualFold(n.Data, "ol")})
		b.children(n, st)
		b.lists = b.lists[:len(b.lists)-1]
		b.flush(false)
	case "li":
		b.flush(false)
		b.runs = append(b.runs, Run{Text: b.marker()})
		b.children(n, st)
		b.flush(false)
	default:
		b.children(n, st)
	}
}

func (b *builder) children(n *html.Node, st Run) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c, st)
	}
}

func (b *builder) block(n *html.Node, st Run) {
	b.flush(false)
	b.children(n, st)
	b.flush(false)
}

func (b *builder) marker() string {
	if len(b.lists) == 0 {
		return "• "
	}
	lc := &b.lists[len(b.lists)-1]
	if !lc.ordered {
		return "• "
	}
	lc.counter++
	return strconv.Itoa(lc.counter) + ". "
}

// text appends s with whitespace collapsed the way a browser renders normal flow
func (b *builder) text(s string, st Run) {
	collapsed := collapseSpace(s)
	if collapsed == "" {
		return
	}
	if b.atLineStart() {
		collapsed = strings.TrimLeft(collapsed, " ")
		if collapsed == "" {
			return
		}
	}
	if n := len(b.runs); n > 0 {
		last := &b.runs[n-1]
		if strings.HasSuffix(last.Text, " ") && strings.HasPrefix(collapsed, " ") {
			collapsed = collapsed[1:]
		}
		if sameStyle(*last, st) {
			last.Text += collapsed
			return
		}
	}
	st.Text = collapsed
	b.runs = append(b.runs, st)
}

func (b *builder) atLineStart() bool {
	for _, r := range b.runs {
		if strings.TrimSpace(r.Text) != "" {
			return false
		}
	}
	return true
}

// flush closes the current paragraph. keepEmpty records a blank line.
func (b *builder) flush(keepEmpty bool) {
	if n := len(b.runs); n > 0 {
		b.runs[n-1].Text = strings.TrimRight(b.runs[n-1].Text, " ")
	}
	p := Paragraph{Runs: b.runs}
	if strings.TrimSpace(p.Text()) != "" || keepEmpty {
		b.paras = append(b.paras, p)
	}
	b.runs = nil
}

func sameStyle(a, b Run) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Underline == b.Underline
}

func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if r != '\u00a0' && unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
