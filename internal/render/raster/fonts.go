package raster

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/gompdf/gomprova/internal/res"
	"github.com/gompdf/gomprova/internal/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts holds one parsed face per style. Faces are created per use since a
// truetype face is not safe for concurrent use.
type Fonts struct {
	Regular    *truetype.Font
	Bold       *truetype.Font
	Italic     *truetype.Font
	BoldItalic *truetype.Font
}

// fontFiles are the file names looked up in a font directory
var fontFiles = map[text.Style]string{
	0:                      "regular.ttf",
	text.Bold:              "bold.ttf",
	text.Italic:            "italic.ttf",
	text.Bold | text.Italic: "bolditalic.ttf",
}

// DefaultFonts returns the embedded Go font family
func DefaultFonts() (*Fonts, error) {
	var f Fonts
	var err error
	if f.Regular, err = truetype.Parse(goregular.TTF); err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	if f.Bold, err = truetype.Parse(gobold.TTF); err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	if f.Italic, err = truetype.Parse(goitalic.TTF); err != nil {
		return nil, fmt.Errorf("failed to parse italic font: %w", err)
	}
	if f.BoldItalic, err = truetype.Parse(gobolditalic.TTF); err != nil {
		return nil, fmt.Errorf("failed to parse bold italic font: %w", err)
	}
	return &f, nil
}

// LoadFonts reads regular.ttf, bold.ttf, italic.ttf and bolditalic.ttf from
// dir through the loader. Missing files fall back to the embedded family.
func LoadFonts(ctx context.Context, l *res.Loader, dir string) (*Fonts, error) {
	f, err := DefaultFonts()
	if err != nil || dir == "" {
		return f, err
	}
	for st, name := range fontFiles {
		r, err := l.LoadFont(ctx, filepath.Join(dir, name))
		if errors.Is(err, res.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		parsed, err := truetype.Parse(r.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		f.set(st, parsed)
	}
	return f, nil
}

func (f *Fonts) set(st text.Style, tf *truetype.Font) {
	switch st &^ text.Underline {
	case text.Bold:
		f.Bold = tf
	case text.Italic:
		f.Italic = tf
	case text.Bold | text.Italic:
		f.BoldItalic = tf
	default:
		f.Regular = tf
	}
}

func (f *Fonts) get(st text.Style) *truetype.Font {
	switch st &^ text.Underline {
	case text.Bold:
		return f.Bold
	case text.Italic:
		return f.Italic
	case text.Bold | text.Italic:
		return f.BoldItalic
	}
	return f.Regular
}

// faceSet creates faces lazily for one pixel size
type faceSet struct {
	fonts *Fonts
	px    float64
	faces map[text.Style]font.Face
}

func newFaceSet(f *Fonts, px float64) *faceSet {
	return &faceSet{fonts: f, px: px, faces: make(map[text.Style]font.Face, 2)}
}

func (fs *faceSet) face(st text.Style) font.Face {
	st &^= text.Underline
	if face, ok := fs.faces[st]; ok {
		return face
	}
	face := truetype.NewFace(fs.fonts.get(st), &truetype.Options{
		Size:    fs.px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	fs.faces[st] = face
	return face
}

// TextWidth returns the advance of s in pixels
func (fs *faceSet) TextWidth(s string, st text.Style) float64 {
	if s == "" {
		return 0
	}
	return float64(font.MeasureString(fs.face(st), s)) / 64
}

// extents returns the ascent and descent of the style's face in pixels
func (fs *faceSet) extents(st text.Style) (float64, float64) {
	m := fs.face(st).Metrics()
	return float64(m.Ascent) / 64, float64(m.Descent) / 64
}
