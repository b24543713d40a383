package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/layout"
	"github.com/gompdf/gomprova/internal/logger"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/text"
	"golang.org/x/image/draw"
)

// DefaultScale is the capture resolution multiplier
const DefaultScale = 2.0

var (
	inkColor    = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	accentColor = color.RGBA{0x1d, 0x4e, 0xd8, 0xff}
	ruleColor   = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
	groupFill   = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	mutedColor  = color.RGBA{0x6b, 0x72, 0x80, 0xff}
)

// ImageSource resolves and decodes image references
type ImageSource interface {
	measure.ImageSizer
	DecodeImage(ctx context.Context, ref string) (image.Image, error)
}

// Renderer draws laid out sheets to bitmaps with gg. Block heights it
// reports come from the same flow it draws.
type Renderer struct {
	fonts  *Fonts
	images ImageSource
	scale  float64
	log    *logger.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithScale sets the capture resolution multiplier
func WithScale(s float64) Option {
	return func(r *Renderer) {
		if s > 0 {
			r.scale = s
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(r *Renderer) { r.log = logger.OrNop(l) }
}

// New creates a renderer. images may be nil, in which case images and the
// logo draw as placeholders.
func New(fonts *Fonts, images ImageSource, opts ...Option) *Renderer {
	r := &Renderer{fonts: fonts, images: images, scale: DefaultScale, log: logger.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Scale returns the capture resolution multiplier
func (r *Renderer) Scale() float64 { return r.scale }

func (r *Renderer) sizer() measure.ImageSizer {
	if r.images == nil {
		return nil
	}
	return r.images
}

// BlockHeight lays b out with the renderer's fonts
func (r *Renderer) BlockHeight(ctx context.Context, b content.Block, f measure.Frame) (float64, error) {
	flow, err := measure.Layout(ctx, b, f, newFaceSet(r.fonts, f.FontSizePx), r.sizer())
	if err != nil {
		return 0, err
	}
	return flow.Height, nil
}

// Capture draws s at the renderer's scale on a white background
func (r *Renderer) Capture(ctx context.Context, s layout.Sheet) (image.Image, error) {
	w := int(s.Width*r.scale + 0.5)
	h := int(s.Height*r.scale + 0.5)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid sheet size %vx%v", s.Width, s.Height)
	}
	c := &canvas{dc: gg.NewContext(w, h), scale: r.scale, fonts: r.fonts, faces: map[float64]*faceSet{}}
	c.dc.SetColor(color.White)
	c.dc.Clear()

	for _, it := range s.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch it.Kind {
		case layout.ItemRule:
			c.rect(it.X, it.Y, it.W, it.H, ruleColor)
		case layout.ItemText:
			col := color.Color(inkColor)
			if it.Accent {
				col = accentColor
			}
			c.text(it.Text, it.FontPx, it.Bold, it.Align, it.X, it.Y, it.W, it.H, col)
		case layout.ItemGroupTitle:
			c.rect(it.X, it.Y, it.W, it.H-measure.DefaultBlockMargin, groupFill)
			c.rect(it.X, it.Y+it.H-measure.DefaultBlockMargin-2, it.W, 2, accentColor)
			c.text(it.Text, it.FontPx, true, layout.AlignCenter, it.X, it.Y, it.W, it.H-measure.DefaultBlockMargin, accentColor)
		case layout.ItemLogo:
			r.drawLogo(ctx, c, it)
		case layout.ItemBlock:
			if err := r.drawBlock(ctx, c, it, s.Frame); err != nil {
				return nil, err
			}
		}
	}
	return c.dc.Image(), nil
}

func (r *Renderer) drawLogo(ctx context.Context, c *canvas, it layout.Item) {
	if it.ImageRef != "" && r.images != nil {
		img, err := r.images.DecodeImage(ctx, it.ImageRef)
		if err == nil {
			c.image(img, it.X, it.Y, it.W, it.H, true)
			return
		}
		r.log.Warn("logo not drawn", "ref", it.ImageRef, "error", err)
	}
	c.rect(it.X, it.Y, it.W, it.H, groupFill)
	if it.Text != "" {
		c.text(it.Text, 12, false, layout.AlignCenter, it.X, it.Y, it.W, it.H, mutedColor)
	}
}

func (r *Renderer) drawBlock(ctx context.Context, c *canvas, it layout.Item, frame measure.Frame) error {
	frame.Width = it.W
	metrics := c.sized(frame.FontSizePx)
	flow, err := measure.Layout(ctx, it.Block, frame, metrics, r.sizer())
	if err != nil {
		return err
	}
	lh := flow.LineHeight
	for _, row := range flow.Rows {
		y := it.Y + row.Y
		switch row.Kind {
		case measure.RowTitle, measure.RowParagraph:
			c.lines(row.Lines, frame.FontSizePx, lh, it.X, y)
		case measure.RowOption, measure.RowStatement:
			c.spans([]text.Span{{Text: row.Marker}}, frame.FontSizePx, lh, it.X, y)
			c.lines(row.Lines, frame.FontSizePx, lh, it.X+row.Indent, y)
		case measure.RowAnswerLine:
			c.rect(it.X, y+row.Height-1, it.W, 1, ruleColor)
		case measure.RowImage:
			r.drawImage(ctx, c, row, it.X, y)
		}
	}
	return nil
}

func (r *Renderer) drawImage(ctx context.Context, c *canvas, row measure.Row, x, y float64) {
	if !row.Broken && r.images != nil {
		img, err := r.images.DecodeImage(ctx, row.ImageRef)
		if err == nil {
			c.image(img, x, y, row.ImageW, row.ImageH, false)
			return
		}
		r.log.Warn("image not drawn", "ref", row.ImageRef, "error", err)
	}
	c.stroke(x, y, row.ImageW, row.ImageH, mutedColor)
	c.line(x, y, x+row.ImageW, y+row.ImageH, mutedColor)
	c.line(x+row.ImageW, y, x, y+row.ImageH, mutedColor)
}

// canvas maps sheet pixels to device pixels
type canvas struct {
	dc    *gg.Context
	scale float64
	fonts *Fonts
	faces map[float64]*faceSet
}

// sized returns the faces for px, cached per capture
func (c *canvas) sized(px float64) *faceSet {
	if fs, ok := c.faces[px]; ok {
		return fs
	}
	fs := newFaceSet(c.fonts, px)
	c.faces[px] = fs
	return fs
}

func (c *canvas) rect(x, y, w, h float64, col color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	c.dc.SetColor(col)
	c.dc.DrawRectangle(x*c.scale, y*c.scale, w*c.scale, h*c.scale)
	c.dc.Fill()
}

func (c *canvas) stroke(x, y, w, h float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(c.scale)
	c.dc.DrawRectangle(x*c.scale, y*c.scale, w*c.scale, h*c.scale)
	c.dc.Stroke()
}

func (c *canvas) line(x1, y1, x2, y2 float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(c.scale)
	c.dc.DrawLine(x1*c.scale, y1*c.scale, x2*c.scale, y2*c.scale)
	c.dc.Stroke()
}

// image draws img into the box, keeping the aspect ratio when contain is set
func (c *canvas) image(img image.Image, x, y, w, h float64, contain bool) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || w <= 0 || h <= 0 {
		return
	}
	if contain {
		k := w / float64(b.Dx())
		if hk := h / float64(b.Dy()); hk < k {
			k = hk
		}
		nw, nh := float64(b.Dx())*k, float64(b.Dy())*k
		x, y, w, h = x+(w-nw)/2, y+(h-nh)/2, nw, nh
	}
	dw, dh := int(w*c.scale+0.5), int(h*c.scale+0.5)
	if dw <= 0 || dh <= 0 {
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	c.dc.DrawImage(dst, int(x*c.scale+0.5), int(y*c.scale+0.5))
}

// text draws a single line aligned within [x, x+w] and centered in the box height
func (c *canvas) text(s string, px float64, bold bool, align layout.Align, x, y, w, h float64, col color.Color) {
	if s == "" {
		return
	}
	st := text.Style(0)
	if bold {
		st = text.Bold
	}
	fs := c.sized(px * c.scale)
	c.dc.SetFontFace(fs.face(st))
	c.dc.SetColor(col)
	ax, tx := 0.0, x
	switch align {
	case layout.AlignCenter:
		ax, tx = 0.5, x+w/2
	case layout.AlignRight:
		ax, tx = 1, x+w
	}
	c.dc.DrawStringAnchored(s, tx*c.scale, (y+h/2)*c.scale, ax, 0.35)
}

func (c *canvas) lines(lines []text.Line, px, lh, x, y float64) {
	for i, l := range lines {
		c.spans(l.Spans, px, lh, x, y+float64(i)*lh)
	}
}

// spans draws one line of styled spans with its top at y
func (c *canvas) spans(spans []text.Span, px, lh, x, y float64) {
	layoutFaces := c.sized(px)
	device := c.sized(px * c.scale)
	asc, desc := device.extents(0)
	baseline := y*c.scale + (lh*c.scale-(asc+desc))/2 + asc
	pen := x
	c.dc.SetColor(inkColor)
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		c.dc.SetFontFace(device.face(sp.Style))
		c.dc.DrawString(sp.Text, pen*c.scale, baseline)
		adv := layoutFaces.TextWidth(sp.Text, sp.Style)
		if sp.Style&text.Underline != 0 && strings.TrimSpace(sp.Text) != "" {
			c.dc.SetLineWidth(c.scale)
			c.dc.DrawLine(pen*c.scale, baseline+desc/2, (pen+adv)*c.scale, baseline+desc/2)
			c.dc.Stroke()
		}
		pen += adv
	}
}
