package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gompdf/gomprova/internal/composite"
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/measure"
)

func fixedEstimator(h float64) measure.HeightEstimator {
	return measure.HeightEstimatorFunc(func(context.Context, content.Block, measure.Frame) (float64, error) {
		return h, nil
	})
}

func newSession(t *testing.T, template string, est measure.HeightEstimator, opts Options) *Session {
	t.Helper()
	opts.Estimator = est
	s := New(config.NewStore(config.DefaultDocument()), template, opts)
	t.Cleanup(s.Close)
	return s
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveRecompute(outcome string, _ time.Duration, _, _ int) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func TestRecomputeSingleSubject(t *testing.T) {
	s := newSession(t, "Prova Global", fixedEstimator(400), Options{})
	for i := 0; i < 5; i++ {
		if _, err := s.AddBlock(content.KindFreeResponse); err != nil {
			t.Fatal(err)
		}
	}
	snap, err := s.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if snap.Document.Composite {
		t.Error("single-subject template assembled as composite")
	}
	if len(snap.Sheets) != snap.Document.Total || snap.Document.Total < 2 {
		t.Errorf("unexpected sheet count %d", len(snap.Sheets))
	}
	if s.Navigator().Total() != snap.Document.Total {
		t.Errorf("navigator not resized: %d", s.Navigator().Total())
	}
	if s.Snapshot() != snap {
		t.Error("snapshot not applied")
	}
	for i, b := range snap.Blocks {
		if b.Number != i+1 {
			t.Fatalf("blocks not renumbered: %d at %d", b.Number, i)
		}
	}
}

func TestRecomputeEmptyComposite(t *testing.T) {
	s := newSession(t, "Simulado Enem", fixedEstimator(100), Options{})
	snap, err := s.Recompute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Document.Total != 4 {
		t.Errorf("empty composite should have 4 sheets, got %d", snap.Document.Total)
	}
	if snap.Sheets[0].Kind != composite.SheetCover || snap.Sheets[3].Kind != composite.SheetBack {
		t.Errorf("unexpected sheet kinds")
	}
}

func TestCompositeSubjects(t *testing.T) {
	s := newSession(t, "Simulado Enem", fixedEstimator(100), Options{})
	if _, err := s.AddBlock(content.KindSingleChoice); !errors.Is(err, ErrNoActiveSubject) {
		t.Fatalf("expected ErrNoActiveSubject, got %v", err)
	}

	s.AddSubject("Matemática")
	m1, _ := s.AddBlock(content.KindSingleChoice)
	s.AddSubject("História")
	h1, _ := s.AddBlock(content.KindFreeResponse)
	if err := s.SetActiveSubject("Matemática"); err != nil {
		t.Fatal(err)
	}
	m2, _ := s.AddBlock(content.KindTrueFalse)
	s.AddSubject("Matemática")
	if got := s.Subjects(); len(got) != 2 {
		t.Errorf("duplicate subject added: %v", got)
	}

	if got := s.VisibleBlocks(); len(got) != 2 || got[0].ID != m1.ID || got[1].ID != m2.ID {
		t.Errorf("unexpected visible blocks: %+v", got)
	}

	snap, err := s.Recompute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{m1.ID, m2.ID, h1.ID}
	for i, b := range snap.Blocks {
		if b.ID != want[i] || b.Number != i+1 {
			t.Errorf("block %d: got %s #%d", i, b.ID, b.Number)
		}
	}

	s.RemoveSubject("Matemática")
	if s.ActiveSubject() != "História" {
		t.Errorf("active subject should fall back to História, got %q", s.ActiveSubject())
	}
	if got := s.Blocks(); len(got) != 1 || got[0].ID != h1.ID {
		t.Errorf("removing a subject should remove its blocks: %+v", got)
	}
	if err := s.SetActiveSubject("Física"); !errors.Is(err, ErrUnknownSubject) {
		t.Errorf("expected ErrUnknownSubject, got %v", err)
	}
}

func TestRecomputeDiscardsStaleResult(t *testing.T) {
	var s *Session
	var once sync.Once
	est := measure.HeightEstimatorFunc(func(context.Context, content.Block, measure.Frame) (float64, error) {
		once.Do(func() { s.SetMeta("História", "1ª Série", "B") })
		return 100, nil
	})
	obs := &recordingObserver{}
	s = newSession(t, "Prova Global", est, Options{Observer: obs})
	if _, err := s.AddBlock(content.KindFreeResponse); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Recompute(context.Background()); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if s.Snapshot() != nil {
		t.Error("stale result applied")
	}

	snap, err := s.Recompute(context.Background())
	if err != nil {
		t.Fatalf("second recompute failed: %v", err)
	}
	if snap.Params.Category != "História" {
		t.Errorf("result does not reflect the new metadata: %q", snap.Params.Category)
	}
	if len(obs.outcomes) != 2 || obs.outcomes[0] != "stale" || obs.outcomes[1] != "applied" {
		t.Errorf("unexpected outcomes: %v", obs.outcomes)
	}
}

func TestScheduleCoalesces(t *testing.T) {
	var applied atomic.Int32
	s := newSession(t, "Microteste", fixedEstimator(50), Options{
		Debounce: time.Hour,
		OnApply:  func(*Snapshot) { applied.Add(1) },
	})
	for i := 0; i < 5; i++ {
		if _, err := s.AddBlock(content.KindFreeResponse); err != nil {
			t.Fatal(err)
		}
		s.Schedule()
	}
	if !s.Flush() {
		t.Fatal("expected a pending recomputation")
	}
	if got := applied.Load(); got != 1 {
		t.Errorf("expected one applied recomputation, got %d", got)
	}
	if s.Flush() {
		t.Error("nothing should be pending after a flush")
	}
	if snap := s.Snapshot(); snap == nil || len(snap.Blocks) != 5 {
		t.Errorf("snapshot does not hold the latest inputs")
	}
}

func TestCurrentReusesSnapshot(t *testing.T) {
	var calls atomic.Int32
	est := measure.HeightEstimatorFunc(func(context.Context, content.Block, measure.Frame) (float64, error) {
		calls.Add(1)
		return 80, nil
	})
	s := newSession(t, "Atividade", est, Options{})
	b, _ := s.AddBlock(content.KindTrueFalse)

	first, err := s.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, _ := s.Current(context.Background())
	if first != second {
		t.Error("unchanged inputs should reuse the snapshot")
	}

	edited := b.Clone()
	edited.Statement = "Outro enunciado"
	if err := s.ReplaceBlock(b.ID, edited); err != nil {
		t.Fatal(err)
	}
	third, _ := s.Current(context.Background())
	if third == first {
		t.Error("changed inputs should recompute")
	}
	if calls.Load() != 2 {
		t.Errorf("expected two measurements, got %d", calls.Load())
	}
}

func TestConfigChangeInvalidatesKey(t *testing.T) {
	s := newSession(t, "Prova Global", fixedEstimator(80), Options{})
	before := s.Key()
	s.Store().SetLogoURL("logo.png")
	if s.Key() == before {
		t.Error("config version should be part of the key")
	}
}

func TestNavigatorReclampedOnShrink(t *testing.T) {
	s := newSession(t, "Prova Global", fixedEstimator(900), Options{})
	var ids []string
	for i := 0; i < 3; i++ {
		b, _ := s.AddBlock(content.KindFreeResponse)
		ids = append(ids, b.ID)
	}
	if _, err := s.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Navigator().Go(2)
	for _, id := range ids[1:] {
		if err := s.DeleteBlock(id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Recompute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Navigator().Current() != s.Navigator().Total()-1 {
		t.Errorf("navigator not clamped: %d of %d", s.Navigator().Current(), s.Navigator().Total())
	}
}

func TestLoadDocument(t *testing.T) {
	s := newSession(t, "Prova Global", fixedEstimator(80), Options{})
	doc := &content.Document{
		Template: "Simulado Tradicional",
		Grade:    "2ª Série",
		Blocks: []content.Block{
			content.NewFreeResponse(0, "Química"),
			content.NewFreeResponse(0, "Física"),
		},
	}
	if err := s.Load(doc); err != nil {
		t.Fatal(err)
	}
	if s.Template() != "Simulado Tradicional" || !s.Policy().Composite {
		t.Errorf("template not loaded: %s", s.Template())
	}
	if got := s.Subjects(); len(got) != 2 || got[0] != "Química" {
		t.Errorf("subjects not derived from blocks: %v", got)
	}
	_, grade, _ := s.Meta()
	if grade != "2ª Série" {
		t.Errorf("grade = %q", grade)
	}
	if out := s.Document(); len(out.Blocks) != 2 || out.Blocks[1].Number != 2 {
		t.Errorf("unexpected round trip: %+v", out)
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	s := newSession(t, "Prova Global", fixedEstimator(80), Options{})
	b := content.NewFreeResponse(0, "")
	err := s.Load(&content.Document{Template: "Atividade", Blocks: []content.Block{b, b}})
	if !errors.Is(err, content.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if s.Template() != "Prova Global" || len(s.Blocks()) != 0 {
		t.Error("a rejected document must leave the session untouched")
	}

	if err := s.Load(&content.Document{Blocks: []content.Block{{Kind: content.KindFreeResponse}, {Kind: content.KindFreeResponse}}}); err != nil {
		t.Fatal(err)
	}
	got := s.Blocks()
	if got[0].ID == "" || got[0].ID == got[1].ID {
		t.Errorf("missing ids should be generated uniquely: %q, %q", got[0].ID, got[1].ID)
	}
}

func TestReplaceBlockRejectsDuplicateOptions(t *testing.T) {
	s := newSession(t, "Prova Global", fixedEstimator(80), Options{})
	b, err := s.AddBlock(content.KindSingleChoice)
	if err != nil {
		t.Fatal(err)
	}
	edited := b.Clone()
	edited.Options[1].ID = edited.Options[0].ID
	if err := s.ReplaceBlock(b.ID, edited); !errors.Is(err, content.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestLoadDropsMeasurementCache(t *testing.T) {
	var calls atomic.Int32
	est := measure.HeightEstimatorFunc(func(context.Context, content.Block, measure.Frame) (float64, error) {
		calls.Add(1)
		return 100, nil
	})
	s := newSession(t, "Prova Global", est, Options{})
	doc := &content.Document{Blocks: []content.Block{content.NewFreeResponse(0, "")}}
	for i := 0; i < 2; i++ {
		if err := s.Load(doc); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Recompute(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("expected a fresh measurement per load, got %d", calls.Load())
	}
}

func TestVisibleBlocksNumberedPerSubject(t *testing.T) {
	s := newSession(t, "Simulado Enem", fixedEstimator(80), Options{})
	s.AddSubject("A")
	a1, _ := s.AddBlock(content.KindFreeResponse)
	s.AddSubject("B")
	b1, _ := s.AddBlock(content.KindFreeResponse)
	if err := s.SetActiveSubject("A"); err != nil {
		t.Fatal(err)
	}
	a2, _ := s.AddBlock(content.KindFreeResponse)

	visible := s.VisibleBlocks()
	if len(visible) != 2 || visible[0].ID != a1.ID || visible[1].ID != a2.ID {
		t.Fatalf("unexpected A tab: %+v", visible)
	}
	if visible[0].Number != 1 || visible[1].Number != 2 {
		t.Errorf("A tab ordinals = %d, %d", visible[0].Number, visible[1].Number)
	}

	if err := s.SetActiveSubject("B"); err != nil {
		t.Fatal(err)
	}
	visible = s.VisibleBlocks()
	if len(visible) != 1 || visible[0].ID != b1.ID || visible[0].Number != 1 {
		t.Errorf("B tab should show its block as 1: %+v", visible)
	}
}
