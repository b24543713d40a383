package workspace

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/gompdf/gomprova/internal/composite"
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/debounce"
	"github.com/gompdf/gomprova/internal/layout"
	"github.com/gompdf/gomprova/internal/logger"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/metrics"
	"github.com/gompdf/gomprova/internal/pagination"
	"github.com/gompdf/gomprova/internal/preview"
)

var (
	// ErrStale reports a result whose inputs changed while it was computed
	ErrStale = errors.New("layout result is stale")
	// ErrNoActiveSubject is returned when adding a block to a composite
	// document with no subject selected
	ErrNoActiveSubject = errors.New("no active subject")
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrEmptyTemplate   = errors.New("template name is empty")
)

// DefaultDebounce is the quiet period before a scheduled recomputation
const DefaultDebounce = 150 * time.Millisecond

// Observer is notified of recomputation outcomes
type Observer interface {
	ObserveRecompute(outcome string, d time.Duration, blocks, pages int)
}

// Snapshot is one applied layout result. It is never modified.
type Snapshot struct {
	Key      string
	Params   layout.Params
	Blocks   []content.Block
	Heights  measure.Heights
	Pages    []pagination.Page
	Document composite.Document
	Sheets   []layout.Sheet
	At       time.Time
}

// Options configures a Session
type Options struct {
	Estimator measure.HeightEstimator
	Measure   measure.Options
	Debounce  time.Duration
	Chrome    layout.Chrome
	Observer  Observer
	Logger    *logger.Logger
	// OnApply, when set, is called with every applied snapshot
	OnApply func(*Snapshot)
}

// Session holds the editing state of one exam sheet and its latest layout
type Session struct {
	mu       sync.Mutex
	store    *config.Store
	template string
	category string
	grade    string
	class    string
	list     *content.List
	subjects []string
	active   string

	measurer *measure.Measurer
	engine   *pagination.Engine
	chrome   layout.Chrome
	nav      *preview.Navigator
	deb      *debounce.Debouncer
	observer Observer
	onApply  func(*Snapshot)
	log      *logger.Logger

	snap *Snapshot
}

// New creates a session for template backed by store
func New(store *config.Store, template string, opts Options) *Session {
	if opts.Estimator == nil {
		opts.Estimator = measure.NewFontMetricsEstimator(nil)
	}
	if opts.Measure == (measure.Options{}) {
		opts.Measure = measure.DefaultOptions()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Chrome == (layout.Chrome{}) {
		opts.Chrome = layout.DefaultChrome()
	}
	log := logger.OrNop(opts.Logger)
	doc := store.Document()
	s := &Session{
		store:    store,
		template: template,
		list:     content.NewList(),
		measurer: measure.New(opts.Estimator, opts.Measure, log),
		engine:   pagination.NewEngine(),
		chrome:   opts.Chrome,
		nav:      preview.NewNavigator(1),
		deb:      debounce.New(opts.Debounce),
		observer: opts.Observer,
		onApply:  opts.OnApply,
		log:      log.With("component", "workspace"),
	}
	s.category = first(doc.Categories)
	s.grade = first(doc.Grades)
	s.class = first(doc.Classes)
	return s
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Load replaces the session state with a document. Missing ids are
// generated; duplicate ids fail with content.ErrDuplicateID and leave the
// session untouched. The measurement cache is dropped because image
// references may now resolve to different files.
func (s *Session) Load(doc *content.Document) error {
	blocks, err := content.NormalizeIDs(doc.Blocks)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Template != "" {
		s.template = doc.Template
	}
	if doc.Category != "" {
		s.category = doc.Category
	}
	if doc.Grade != "" {
		s.grade = doc.Grade
	}
	if doc.Class != "" {
		s.class = doc.Class
	}
	s.subjects = nil
	for _, sub := range doc.Subjects {
		s.addSubject(sub)
	}
	// subjects used by blocks but not listed become tabs too
	for _, b := range blocks {
		s.addSubject(b.Subject)
	}
	s.active = first(s.subjects)
	s.list = content.NewList(blocks...)
	s.measurer.Invalidate()
	return nil
}

// Document returns the session state as a document file
func (s *Session) Document() *content.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &content.Document{
		Template: s.template,
		Category: s.category,
		Grade:    s.grade,
		Class:    s.class,
		Subjects: append([]string(nil), s.subjects...),
		Blocks:   s.list.Blocks(),
	}
}

// Store returns the configuration store
func (s *Session) Store() *config.Store { return s.store }

// Navigator returns the preview navigator
func (s *Session) Navigator() *preview.Navigator { return s.nav }

// Template returns the current template name
func (s *Session) Template() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template
}

// Policy returns the policy of the current template
func (s *Session) Policy() config.Policy {
	return config.PolicyFor(s.Template())
}

// Meta returns category, grade and class
func (s *Session) Meta() (category, grade, class string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category, s.grade, s.class
}

// Blocks returns every block in list order
func (s *Session) Blocks() []content.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Blocks()
}

// VisibleBlocks returns the blocks shown in the editor: the active
// subject's blocks for composite templates, every block otherwise. Ordinals
// run from 1 within the returned list.
func (s *Session) VisibleBlocks() []content.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !config.IsComposite(s.template) {
		return s.list.Blocks()
	}
	return content.Renumber(content.ForSubject(s.list.Blocks(), s.active))
}

// Subjects returns the composite subject tabs in order
func (s *Session) Subjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subjects...)
}

// ActiveSubject returns the selected subject tab
func (s *Session) ActiveSubject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// AddBlock appends a new block of kind. Composite templates tag it with the
// active subject.
func (s *Session) AddBlock(kind content.Kind) (content.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject := ""
	if config.IsComposite(s.template) {
		if s.active == "" {
			return content.Block{}, ErrNoActiveSubject
		}
		subject = s.active
	}
	b, err := content.New(kind, s.list.Len()+1, subject)
	if err != nil {
		return content.Block{}, err
	}
	return s.list.Append(b), nil
}

// ReplaceBlock stores an edited block. Missing option and statement ids are
// generated.
func (s *Session) ReplaceBlock(id string, b content.Block) error {
	b.ID = id
	normalized, err := content.NormalizeIDs([]content.Block{b})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Replace(id, normalized[0])
}

// DeleteBlock removes a block
func (s *Session) DeleteBlock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Delete(id)
}

// MoveBlock moves a block to index to of the full list
func (s *Session) MoveBlock(id string, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.MoveID(id, to)
}

// SetTemplate switches the template
func (s *Session) SetTemplate(name string) error {
	if name == "" {
		return ErrEmptyTemplate
	}
	s.mu.Lock()
	s.template = name
	s.mu.Unlock()
	return nil
}

// SetMeta sets category, grade and class
func (s *Session) SetMeta(category, grade, class string) {
	s.mu.Lock()
	s.category, s.grade, s.class = category, grade, class
	s.mu.Unlock()
}

// AddSubject adds a subject tab and selects it. Empty and duplicate names
// are ignored.
func (s *Session) AddSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addSubject(subject) {
		s.active = subject
	}
}

func (s *Session) addSubject(subject string) bool {
	if subject == "" {
		return false
	}
	for _, x := range s.subjects {
		if x == subject {
			return false
		}
	}
	s.subjects = append(s.subjects, subject)
	return true
}

// RemoveSubject drops a subject tab together with its blocks. When it was
// active the first remaining tab becomes active.
func (s *Session) RemoveSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.subjects[:0:0]
	for _, x := range s.subjects {
		if x != subject {
			kept = append(kept, x)
		}
	}
	s.subjects = kept
	s.list.DeleteWhere(func(b content.Block) bool { return b.Subject == subject })
	if s.active == subject {
		s.active = first(s.subjects)
	}
}

// SetActiveSubject selects a subject tab
func (s *Session) SetActiveSubject(subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.subjects {
		if x == subject {
			s.active = subject
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
}

// input is everything a recomputation reads, captured under the lock
type input struct {
	key    string
	params layout.Params
	blocks []content.Block
}

func (s *Session) inputLocked() input {
	p := layout.NewParams(s.template, s.store.Document())
	p.Category, p.Grade, p.Class = s.category, s.grade, s.class

	blocks := s.list.Blocks()
	if p.Policy.Composite {
		blocks = content.Arrange(blocks, s.subjects)
	} else {
		blocks = content.Renumber(blocks)
	}

	h := fnv.New64a()
	write := func(v string) {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	write(strconv.FormatUint(s.store.Version(), 10))
	write(s.template)
	write(s.category)
	write(s.grade)
	write(s.class)
	for _, b := range blocks {
		write(b.Fingerprint())
		write(b.CorrectOptionID)
	}
	return input{key: strconv.FormatUint(h.Sum64(), 16), params: p, blocks: blocks}
}

// Key returns the request key of the current inputs
func (s *Session) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputLocked().key
}

// Recompute measures, paginates, assembles and composes the current inputs.
// A result whose inputs changed meanwhile is discarded with ErrStale.
func (s *Session) Recompute(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	s.mu.Lock()
	in := s.inputLocked()
	s.mu.Unlock()

	snap, err := s.compute(ctx, in)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeStale
		}
		s.observe(outcome, start, len(in.blocks), 0)
		return nil, err
	}

	s.mu.Lock()
	if key := s.inputLocked().key; key != in.key {
		s.mu.Unlock()
		s.log.Debug("discarding stale layout", "key", in.key, "current", key)
		s.observe(metrics.OutcomeStale, start, len(in.blocks), 0)
		return nil, ErrStale
	}
	s.snap = snap
	s.nav.SetTotal(snap.Document.Total)
	onApply := s.onApply
	s.mu.Unlock()

	s.observe(metrics.OutcomeApplied, start, len(snap.Blocks), snap.Document.Total)
	s.log.Debug("layout applied", "key", snap.Key, "blocks", len(snap.Blocks), "sheets", snap.Document.Total)
	if onApply != nil {
		onApply(snap)
	}
	return snap, nil
}

func (s *Session) compute(ctx context.Context, in input) (*Snapshot, error) {
	heights, err := s.measurer.Measure(ctx, in.blocks, in.params.Frame())
	if err != nil {
		if errors.Is(err, measure.ErrUnsettled) {
			s.log.Warn("skipping layout cycle", "error", err)
		}
		return nil, err
	}

	s.mu.Lock()
	s.engine.SetOptions(in.params.EngineOptions(s.chrome))
	pages, err := s.engine.Paginate(in.blocks, heights)
	chrome := s.chrome
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to paginate: %w", err)
	}

	doc := composite.Assemble(pages, in.params.Policy)
	return &Snapshot{
		Key:      in.key,
		Params:   in.params,
		Blocks:   in.blocks,
		Heights:  heights,
		Pages:    pages,
		Document: doc,
		Sheets:   layout.Compose(doc, heights, in.params, chrome),
		At:       time.Now(),
	}, nil
}

func (s *Session) observe(outcome string, start time.Time, blocks, pages int) {
	if s.observer != nil {
		s.observer.ObserveRecompute(outcome, time.Since(start), blocks, pages)
	}
}

// Schedule recomputes after the debounce period. Bursts collapse into one
// recomputation and a superseded run is cancelled.
func (s *Session) Schedule() {
	s.deb.Schedule(func(ctx context.Context) {
		if _, err := s.Recompute(ctx); err != nil && !errors.Is(err, ErrStale) && !errors.Is(err, context.Canceled) {
			s.log.Warn("scheduled layout failed", "error", err)
		}
	})
}

// Flush runs a pending scheduled recomputation now
func (s *Session) Flush() bool { return s.deb.Flush() }

// Snapshot returns the last applied result, or nil before the first one
func (s *Session) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Current returns the last applied result when it matches the current
// inputs, recomputing otherwise.
func (s *Session) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	key := s.inputLocked().key
	snap := s.snap
	s.mu.Unlock()
	if snap != nil && snap.Key == key {
		return snap, nil
	}
	return s.Recompute(ctx)
}

// Close stops scheduled work
func (s *Session) Close() {
	s.deb.Stop()
}
