package measure

import (
	"context"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/style"
	"github.com/gompdf/gomprova/internal/text"
)

// Singleton PDF instance for text measurement using go-pdf/fpdf metrics
var (
	measureOnce sync.Once
	measurePDF  *fpdf.Fpdf
	measureTr   func(string) string
	measureMu   sync.Mutex
)

func initMeasurePDF() {
	measurePDF = fpdf.New("P", "pt", "A4", "")
	measurePDF.SetFont("Helvetica", "", 12)
	// core fonts are cp1252 encoded; widths of accented runes need translating
	measureTr = measurePDF.UnicodeTranslatorFromDescriptor("")
}

// coreMetrics measures with the PDF core font closest to a font-family list
type coreMetrics struct {
	family string
	sizePt float64
}

func newCoreMetrics(f Frame) coreMetrics {
	return coreMetrics{family: style.CoreFont(f.FontFamily), sizePt: f.FontSizePx / style.PxPerPt}
}

// TextWidth returns the width of s in pixels
func (m coreMetrics) TextWidth(s string, st text.Style) float64 {
	if s == "" || m.sizePt <= 0 {
		return 0
	}
	measureOnce.Do(initMeasurePDF)
	measureMu.Lock()
	defer measureMu.Unlock()
	measurePDF.SetFont(m.family, fpdfStyle(st), m.sizePt)
	return measurePDF.GetStringWidth(measureTr(s)) * style.PxPerPt
}

func fpdfStyle(st text.Style) string {
	s := ""
	if st&text.Bold != 0 {
		s += "B"
	}
	if st&text.Italic != 0 {
		s += "I"
	}
	return s
}

// FontMetricsEstimator estimates block heights from PDF core font metrics.
// It is deterministic and always ready.
type FontMetricsEstimator struct {
	images ImageSizer
}

// NewFontMetricsEstimator creates an estimator. images resolves illustrative
// images and may be nil.
func NewFontMetricsEstimator(images ImageSizer) *FontMetricsEstimator {
	return &FontMetricsEstimator{images: images}
}

func (e *FontMetricsEstimator) BlockHeight(ctx context.Context, b content.Block, f Frame) (float64, error) {
	flow, err := Layout(ctx, b, f, newCoreMetrics(f), e.images)
	if err != nil {
		return 0, err
	}
	return flow.Height, nil
}

// CoreTextWidth measures s with the core font for family at fontPx
func CoreTextWidth(s string, st text.Style, family string, fontPx float64) float64 {
	return newCoreMetrics(Frame{FontSizePx: fontPx, FontFamily: family}).TextWidth(s, st)
}
