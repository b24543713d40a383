package pagination

import (
	"errors"

	"github.com/gompdf/gomprova/internal/measure"
)

// ErrMissingHeight reports a block without a measured height
var ErrMissingHeight = errors.New("missing measured height")

// Default page geometry, in CSS pixels at 96dpi
const (
	DefaultPageHeight  = 1122.8
	DefaultPagePadding = 56.7
	DefaultBuffer      = 40.0
)

// Options represents options for the pagination engine
type Options struct {
	PageHeight float64
	// PagePadding is applied at the top and at the bottom
	PagePadding       float64
	HeaderHeight      float64
	FooterHeight      float64
	Buffer            float64
	BlockMargin       float64
	GroupHeaderHeight float64
	Columns           int
	Grouping          bool
}

// DefaultOptions returns single-column options without header or footer
func DefaultOptions() Options {
	return Options{
		PageHeight:        DefaultPageHeight,
		PagePadding:       DefaultPagePadding,
		Buffer:            DefaultBuffer,
		BlockMargin:       measure.DefaultBlockMargin,
		GroupHeaderHeight: measure.DefaultGroupHeaderHeight,
		Columns:           1,
	}
}

// Engine handles the pagination process
type Engine struct {
	options Options
}

// NewEngine creates a new pagination engine
func NewEngine() *Engine {
	return &Engine{options: DefaultOptions()}
}

// SetOptions sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) {
	if options.Columns < 1 {
		options.Columns = 1
	}
	e.options = options
}

// Options returns the current options
func (e *Engine) Options() Options {
	return e.options
}

// Limits returns the content height available on the first page and on
// every following page.
func (e *Engine) Limits() (first, other float64) {
	o := e.options
	other = o.PageHeight - 2*o.PagePadding - o.FooterHeight - o.Buffer
	first = other - o.HeaderHeight
	return first, other
}

// Spacing returns the structural spacing the engine adds to measured heights
func (e *Engine) Spacing() measure.Spacing {
	return measure.Spacing{
		BlockMargin:       e.options.BlockMargin,
		GroupHeaderHeight: e.options.GroupHeaderHeight,
		Grouping:          e.options.Grouping,
	}
}
