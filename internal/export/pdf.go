package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
)

// A4 portrait in points
const (
	pageWidthPt  = 595.28
	pageHeightPt = 841.89
)

// Creator is written to the PDF creator field
const Creator = "gomprova"

// PDFSink assembles an image-based A4 PDF. Each page is one PNG drawn at
// full page size. The document is written to w on Close only.
type PDFSink struct {
	w   io.Writer
	pdf *fpdf.Fpdf
}

// NewPDFSink creates a sink writing to w
func NewPDFSink(w io.Writer) *PDFSink {
	return &PDFSink{w: w}
}

func (s *PDFSink) Begin(m Meta) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetTitle(m.Title(), true)
	pdf.SetSubject(m.Grade+" "+m.Class, true)
	pdf.SetCreator(Creator, true)
	pdf.SetProducer(Creator, true)
	s.pdf = pdf
	return nil
}

func (s *PDFSink) AddPage(_ context.Context, index int, img image.Image) error {
	if s.pdf == nil {
		return fmt.Errorf("page %d added before Begin", index+1)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode page image: %w", err)
	}
	name := fmt.Sprintf("page-%03d", index+1)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	s.pdf.AddPage()
	s.pdf.RegisterImageOptionsReader(name, opts, &buf)
	s.pdf.ImageOptions(name, 0, 0, pageWidthPt, pageHeightPt, false, opts, 0, "")
	return s.pdf.Error()
}

func (s *PDFSink) Close() error {
	if s.pdf == nil {
		return ErrNothingToExport
	}
	return s.pdf.Output(s.w)
}

// FileSink writes a PDF to path once the export completes. The file is
// created on Close so a failed export leaves nothing behind.
type FileSink struct {
	*PDFSink
	path string
	buf  bytes.Buffer
}

// NewFileSink creates a sink that writes the finished PDF to path
func NewFileSink(path string) *FileSink {
	fs := &FileSink{path: path}
	fs.PDFSink = NewPDFSink(&fs.buf)
	return fs
}

func (fs *FileSink) Close() error {
	if err := fs.PDFSink.Close(); err != nil {
		return err
	}
	if dir := filepath.Dir(fs.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(fs.path, fs.buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// PNGDirSink writes page-001.png, page-002.png... into a directory
type PNGDirSink struct {
	dir   string
	files []string
}

// NewPNGDirSink creates a sink writing into dir
func NewPNGDirSink(dir string) *PNGDirSink {
	return &PNGDirSink{dir: dir}
}

// Files returns the paths written so far
func (s *PNGDirSink) Files() []string { return append([]string(nil), s.files...) }

func (s *PNGDirSink) Begin(Meta) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	s.files = nil
	return nil
}

func (s *PNGDirSink) AddPage(_ context.Context, index int, img image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf("page-%03d.png", index+1))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.files = append(s.files, path)
	return nil
}

func (s *PNGDirSink) Close() error { return nil }
