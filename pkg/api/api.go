package api

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/export"
	"github.com/gompdf/gomprova/internal/layout"
	"github.com/gompdf/gomprova/internal/logger"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/render/raster"
	"github.com/gompdf/gomprova/internal/res"
	"github.com/gompdf/gomprova/internal/workspace"
)

// Document is an exam sheet description
type Document = content.Document

// Block is one question
type Block = content.Block

// Choice is one option of a single-choice block
type Choice = content.Option

// Statement is one item of a true-false block
type Statement = content.Statement

// Composer paginates exam documents and exports them
type Composer struct {
	options Options
	log     *logger.Logger
}

// New creates a composer with default options
func New() *Composer {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions creates a composer with the specified options
func NewWithOptions(options Options) *Composer {
	return &Composer{
		options: options,
		log:     logger.Nop(),
	}
}

// WithOption applies one option
func (c *Composer) WithOption(option Option) *Composer {
	option(&c.options)
	return c
}

// WithOptions replaces the options
func (c *Composer) WithOptions(options Options) *Composer {
	c.options = options
	return c
}

// AddResourcePath adds a path to search for images
func (c *Composer) AddResourcePath(path string) *Composer {
	c.options.ResourcePaths = append(c.options.ResourcePaths, path)
	return c
}

// SetLogger sets the logger used by composition and export
func (c *Composer) SetLogger(l *logger.Logger) *Composer {
	c.log = logger.OrNop(l)
	return c
}

// Options returns the current options
func (c *Composer) Options() Options { return c.options }

// LoadDocumentFile reads a YAML document
func LoadDocumentFile(path string) (*Document, error) {
	return content.LoadDocumentFile(path)
}

// SheetSummary describes one composed sheet
type SheetSummary struct {
	Number int
	Kind   string
	// Blocks holds the ordinals placed on the sheet, per column
	Blocks [][]int
	Groups []string
}

// Result is the outcome of composing a document
type Result struct {
	Template     string
	Composite    bool
	ContentPages int
	Total        int
	Sheets       []SheetSummary
}

type composition struct {
	snap     *workspace.Snapshot
	renderer *raster.Renderer
}

func (c *Composer) store(cfg *config.Config) *config.Store {
	store := config.NewStore(cfg.DocumentConfiguration())
	if c.options.LogoURL != "" {
		store.SetLogoURL(c.options.LogoURL)
	}
	for name, st := range c.options.Styles {
		store.SetTemplateStyle(name, st)
	}
	return store
}

func (c *Composer) compose(ctx context.Context, doc *Document) (*composition, error) {
	cfg, err := config.Load(c.options.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	store := c.store(cfg)

	loader := res.NewLoader("")
	for _, p := range c.options.ResourcePaths {
		loader.AddSearchPath(p)
	}
	fonts, err := raster.LoadFonts(ctx, loader, c.options.FontDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}
	renderer := raster.New(fonts, loader, raster.WithScale(c.options.Scale), raster.WithLogger(c.log))

	var est measure.HeightEstimator = renderer
	if c.options.Estimator == EstimatorFontMetrics {
		est = measure.NewFontMetricsEstimator(loader)
	}
	mo := measure.Options{
		Concurrency: cfg.Measure.Concurrency,
		RetryDelay:  cfg.Measure.RetryDelay,
		MaxAttempts: cfg.Measure.MaxAttempts,
	}
	if c.options.Concurrency > 0 {
		mo.Concurrency = c.options.Concurrency
	}

	template := cfg.Document.Template
	if c.options.Template != "" {
		template = c.options.Template
	}
	sess := workspace.New(store, template, workspace.Options{Estimator: est, Measure: mo, Logger: c.log})
	defer sess.Close()
	if err := sess.Load(doc); err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if c.options.Template != "" {
		if err := sess.SetTemplate(c.options.Template); err != nil {
			return nil, err
		}
	}

	snap, err := sess.Recompute(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compose document: %w", err)
	}
	if c.options.Debug {
		c.log.Debug("composed", "template", snap.Params.Template, "sheets", snap.Document.Total, "blocks", len(snap.Blocks))
	}
	return &composition{snap: snap, renderer: renderer}, nil
}

// Paginate composes doc and summarizes its sheets
func (c *Composer) Paginate(ctx context.Context, doc *Document) (*Result, error) {
	comp, err := c.compose(ctx, doc)
	if err != nil {
		return nil, err
	}
	snap := comp.snap
	out := &Result{
		Template:     snap.Params.Template,
		Composite:    snap.Document.Composite,
		ContentPages: snap.Document.ContentPages,
		Total:        snap.Document.Total,
	}
	for _, sh := range snap.Sheets {
		out.Sheets = append(out.Sheets, summarize(sh))
	}
	return out, nil
}

func summarize(sh layout.Sheet) SheetSummary {
	s := SheetSummary{Number: sh.Number, Kind: sh.Kind.String()}
	for _, it := range sh.Items {
		switch it.Kind {
		case layout.ItemBlock:
			for len(s.Blocks) <= it.Column {
				s.Blocks = append(s.Blocks, nil)
			}
			s.Blocks[it.Column] = append(s.Blocks[it.Column], it.Block.Number)
		case layout.ItemGroupTitle:
			s.Groups = append(s.Groups, it.Text)
		}
	}
	return s
}

func meta(snap *workspace.Snapshot) export.Meta {
	p := snap.Params
	return export.Meta{
		Template:  p.Template,
		Category:  p.Category,
		Grade:     p.Grade,
		Class:     p.Class,
		Composite: p.Policy.Composite,
	}
}

func (c *Composer) run(ctx context.Context, doc *Document, sink func(export.Meta) export.Sink) (export.Meta, error) {
	comp, err := c.compose(ctx, doc)
	if err != nil {
		return export.Meta{}, err
	}
	m := meta(comp.snap)
	pipeline := export.NewPipeline(c.log, nil)
	return m, pipeline.Run(ctx, comp.snap.Sheets, m, comp.renderer, sink(m))
}

// Export composes doc and writes an image-based PDF to output. It returns
// the suggested file name.
func (c *Composer) Export(ctx context.Context, doc *Document, output io.Writer) (string, error) {
	var buf bytes.Buffer
	m, err := c.run(ctx, doc, func(export.Meta) export.Sink { return export.NewPDFSink(&buf) })
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(output, &buf); err != nil {
		return "", fmt.Errorf("failed to copy PDF to output: %w", err)
	}
	return export.FileName(m), nil
}

// ExportToFile composes doc and writes the PDF to outputPath
func (c *Composer) ExportToFile(ctx context.Context, doc *Document, outputPath string) error {
	_, err := c.run(ctx, doc, func(export.Meta) export.Sink { return export.NewFileSink(outputPath) })
	return err
}

// ExportPNG composes doc and writes one PNG per sheet into dir
func (c *Composer) ExportPNG(ctx context.Context, doc *Document, dir string) ([]string, error) {
	sink := export.NewPNGDirSink(dir)
	if _, err := c.run(ctx, doc, func(export.Meta) export.Sink { return sink }); err != nil {
		return nil, err
	}
	return sink.Files(), nil
}

// ExportFile reads a YAML document and writes its PDF. An empty outputPath
// uses the suggested file name in the working directory.
func (c *Composer) ExportFile(ctx context.Context, inputPath, outputPath string) (string, error) {
	doc, err := LoadDocumentFile(inputPath)
	if err != nil {
		return "", err
	}
	if outputPath == "" {
		if c.options.Template != "" {
			doc.Template = c.options.Template
		}
		outputPath = FileName(doc)
	}
	if err := c.ExportToFile(ctx, doc, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// FileName returns the suggested export file name of doc
func FileName(doc *Document) string {
	return export.FileName(export.Meta{
		Template:  doc.Template,
		Category:  doc.Category,
		Grade:     doc.Grade,
		Class:     doc.Class,
		Composite: config.IsComposite(doc.Template),
	})
}
