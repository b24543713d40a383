package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gompdf/gomprova/internal/layout"
	"github.com/gompdf/gomprova/internal/logger"
)

var (
	// ErrNothingToExport is returned for a document with no sheets
	ErrNothingToExport = errors.New("nothing to export")
	// ErrInProgress is returned when an export is already running
	ErrInProgress = errors.New("export already in progress")
)

// Meta describes the exported document
type Meta struct {
	Template  string
	Category  string
	Grade     string
	Class     string
	Composite bool
	Pages     int
}

// Title is the document title written to the PDF metadata
func (m Meta) Title() string {
	if m.Composite || m.Category == "" {
		return m.Template
	}
	return m.Template + " - " + m.Category
}

// PageCapturer rasterizes one laid out sheet
type PageCapturer interface {
	Capture(ctx context.Context, s layout.Sheet) (image.Image, error)
}

// Sink receives captured pages in order. Nothing is committed before Close.
type Sink interface {
	Begin(m Meta) error
	AddPage(ctx context.Context, index int, img image.Image) error
	Close() error
}

// Observer is notified of export outcomes
type Observer interface {
	ObserveExport(pages int, d time.Duration, err error)
}

// Pipeline captures sheets one at a time and hands them to a sink
type Pipeline struct {
	log      *logger.Logger
	observer Observer
	running  atomic.Bool
	// Progress, when set, is called after every page
	Progress func(done, total int)
}

// NewPipeline creates a pipeline. observer may be nil.
func NewPipeline(log *logger.Logger, observer Observer) *Pipeline {
	return &Pipeline{log: logger.OrNop(log), observer: observer}
}

// InProgress reports whether an export is running
func (p *Pipeline) InProgress() bool { return p.running.Load() }

// Run captures every sheet in order and writes it to sink. Each capture
// finishes before the next starts, so at most one page raster is alive.
// Any failure aborts the export and leaves the sink uncommitted.
func (p *Pipeline) Run(ctx context.Context, sheets []layout.Sheet, meta Meta, c PageCapturer, sink Sink) (err error) {
	if !p.running.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	start := time.Now()
	defer func() {
		p.running.Store(false)
		if p.observer != nil {
			p.observer.ObserveExport(len(sheets), time.Since(start), err)
		}
	}()

	if len(sheets) == 0 || c == nil || sink == nil {
		return ErrNothingToExport
	}
	meta.Pages = len(sheets)
	if err := sink.Begin(meta); err != nil {
		return fmt.Errorf("failed to begin export: %w", err)
	}

	for i, s := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := c.Capture(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to capture page %d: %w", i+1, err)
		}
		if err := sink.AddPage(ctx, i, img); err != nil {
			return fmt.Errorf("failed to add page %d: %w", i+1, err)
		}
		if p.Progress != nil {
			p.Progress(i+1, len(sheets))
		}
		p.log.Debug("page exported", "page", i+1, "total", len(sheets))
	}

	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to finish export: %w", err)
	}
	p.log.Info("export finished", "pages", len(sheets), "elapsed", time.Since(start))
	return nil
}

// FileName derives the download name of an export. Single-subject exports
// are named {template}-{category}-{grade}{class}.pdf, composite ones
// {template}-{grade}{class}.pdf.
func FileName(m Meta) string {
	parts := []string{clean(m.Template)}
	if !m.Composite {
		parts = append(parts, clean(m.Category))
	}
	parts = append(parts, clean(m.Grade)+clean(m.Class))
	return strings.Join(parts, "-") + ".pdf"
}

func clean(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
