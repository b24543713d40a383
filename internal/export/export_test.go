package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gompdf/gomprova/internal/layout"
)

type fakeCapturer struct {
	calls  []int
	failAt int
}

func (c *fakeCapturer) Capture(_ context.Context, s layout.Sheet) (image.Image, error) {
	c.calls = append(c.calls, s.Number)
	if c.failAt > 0 && s.Number == c.failAt {
		return nil, errors.New("capture failed")
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 10))
	img.Set(1, 1, color.Black)
	return img, nil
}

type recordingSink struct {
	began   bool
	closed  bool
	indexes []int
	meta    Meta
}

func (s *recordingSink) Begin(m Meta) error { s.began, s.meta = true, m; return nil }
func (s *recordingSink) AddPage(_ context.Context, i int, _ image.Image) error {
	s.indexes = append(s.indexes, i)
	return nil
}
func (s *recordingSink) Close() error { s.closed = true; return nil }

type countingObserver struct {
	calls int
	err   error
}

func (o *countingObserver) ObserveExport(_ int, _ time.Duration, err error) {
	o.calls++
	o.err = err
}

func sheets(n int) []layout.Sheet {
	out := make([]layout.Sheet, n)
	for i := range out {
		out[i] = layout.Sheet{Number: i + 1, Total: n, Width: 8, Height: 10}
	}
	return out
}

func TestRunSequentialInOrder(t *testing.T) {
	obs := &countingObserver{}
	p := NewPipeline(nil, obs)
	var progress []int
	p.Progress = func(done, _ int) { progress = append(progress, done) }

	c, sink := &fakeCapturer{}, &recordingSink{}
	if err := p.Run(context.Background(), sheets(4), Meta{Template: "Simulado Enem"}, c, sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, n := range c.calls {
		if n != i+1 {
			t.Fatalf("captured out of order: %v", c.calls)
		}
	}
	if len(sink.indexes) != 4 || !sink.closed || sink.meta.Pages != 4 {
		t.Errorf("unexpected sink state: %+v", sink)
	}
	if len(progress) != 4 || progress[3] != 4 {
		t.Errorf("unexpected progress: %v", progress)
	}
	if obs.calls != 1 || obs.err != nil {
		t.Errorf("observer not notified once: %+v", obs)
	}
	if p.InProgress() {
		t.Error("in-progress flag not reset")
	}
}

func TestRunNothingToExport(t *testing.T) {
	p := NewPipeline(nil, nil)
	sink := &recordingSink{}
	err := p.Run(context.Background(), nil, Meta{}, &fakeCapturer{}, sink)
	if !errors.Is(err, ErrNothingToExport) {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}
	if sink.began || p.InProgress() {
		t.Error("empty export must not touch the sink or leave the flag set")
	}
	if err := p.Run(context.Background(), sheets(1), Meta{}, nil, sink); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("missing capturer should abort, got %v", err)
	}
}

func TestRunAbortsOnCaptureFailure(t *testing.T) {
	p := NewPipeline(nil, nil)
	c, sink := &fakeCapturer{failAt: 2}, &recordingSink{}
	err := p.Run(context.Background(), sheets(3), Meta{}, c, sink)
	if err == nil {
		t.Fatal("expected an error")
	}
	if sink.closed {
		t.Error("a failed export must not be committed")
	}
	if len(c.calls) != 2 {
		t.Errorf("export should stop at the failing page, captured %v", c.calls)
	}
	if p.InProgress() {
		t.Error("in-progress flag not reset after failure")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewPipeline(nil, nil).Run(ctx, sheets(2), Meta{}, &fakeCapturer{}, &recordingSink{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type blockingCapturer struct {
	started chan struct{}
	release chan struct{}
}

func (c *blockingCapturer) Capture(context.Context, layout.Sheet) (image.Image, error) {
	close(c.started)
	<-c.release
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func TestRunRejectsConcurrentExport(t *testing.T) {
	p := NewPipeline(nil, nil)
	c := &blockingCapturer{started: make(chan struct{}), release: make(chan struct{})}
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background(), sheets(1), Meta{}, c, &recordingSink{}) }()
	<-c.started
	if err := p.Run(context.Background(), sheets(1), Meta{}, &fakeCapturer{}, &recordingSink{}); !errors.Is(err, ErrInProgress) {
		t.Errorf("expected ErrInProgress, got %v", err)
	}
	close(c.release)
	if err := <-done; err != nil {
		t.Errorf("first export failed: %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		meta Meta
		want string
	}{
		{Meta{Template: "Prova Global", Category: "Matemática", Grade: "9º Ano", Class: "A"}, "Prova Global-Matemática-9º AnoA.pdf"},
		{Meta{Template: "Simulado Enem", Category: "ignored", Grade: "3ª Série", Class: "B", Composite: true}, "Simulado Enem-3ª SérieB.pdf"},
		{Meta{Template: "Atividade", Category: "Física/Química", Grade: "1/2", Class: "C"}, "Atividade-FísicaQuímica-12C.pdf"},
	}
	for _, tt := range tests {
		if got := FileName(tt.meta); got != tt.want {
			t.Errorf("FileName(%+v) = %q, want %q", tt.meta, got, tt.want)
		}
	}
}

func TestPDFSinkWritesOnClose(t *testing.T) {
	var buf bytes.Buffer
	sink := NewPDFSink(&buf)
	if err := NewPipeline(nil, nil).Run(context.Background(), sheets(2), Meta{Template: "Microteste"}, &fakeCapturer{}, sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
	if !bytes.Contains(buf.Bytes(), []byte("/Count 2")) {
		t.Error("expected two pages")
	}
}

func TestPDFSinkCloseWithoutBegin(t *testing.T) {
	if err := NewPDFSink(&bytes.Buffer{}).Close(); !errors.Is(err, ErrNothingToExport) {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}
}

func TestFileSinkLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "prova.pdf")
	err := NewPipeline(nil, nil).Run(context.Background(), sheets(2), Meta{}, &fakeCapturer{failAt: 2}, NewFileSink(path))
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("partial file written: %v", statErr)
	}

	if err := NewPipeline(nil, nil).Run(context.Background(), sheets(1), Meta{}, &fakeCapturer{}, NewFileSink(path)); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("expected a pdf at %s: %v", path, err)
	}
}

func TestPNGDirSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	sink := NewPNGDirSink(dir)
	if err := NewPipeline(nil, nil).Run(context.Background(), sheets(3), Meta{}, &fakeCapturer{}, sink); err != nil {
		t.Fatal(err)
	}
	files := sink.Files()
	if len(files) != 3 || filepath.Base(files[0]) != "page-001.png" || filepath.Base(files[2]) != "page-003.png" {
		t.Errorf("unexpected files: %v", files)
	}
}
