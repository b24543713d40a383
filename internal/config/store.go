package config

import "sync"

// Store guards a Document for concurrent readers and explicit setters.
// Every setter bumps Version.
type Store struct {
	mu      sync.RWMutex
	doc     Document
	version uint64
}

// NewStore creates a store holding a copy of doc
func NewStore(doc Document) *Store {
	return &Store{doc: doc.Clone(), version: 1}
}

// Document returns a copy of the current configuration
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Style returns the style of template
func (s *Store) Style(template string) TemplateStyle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Style(template)
}

// LogoURL returns the configured logo reference
func (s *Store) LogoURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.LogoURL
}

// Version increases on every change
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) update(fn func(d *Document)) {
	s.mu.Lock()
	fn(&s.doc)
	s.version++
	s.mu.Unlock()
}

func (s *Store) SetCategories(v []string) {
	s.update(func(d *Document) { d.Categories = append([]string(nil), v...) })
}

func (s *Store) SetGrades(v []string) {
	s.update(func(d *Document) { d.Grades = append([]string(nil), v...) })
}

func (s *Store) SetClasses(v []string) {
	s.update(func(d *Document) { d.Classes = append([]string(nil), v...) })
}

func (s *Store) SetLogoURL(url string) {
	s.update(func(d *Document) { d.LogoURL = url })
}

// SetTemplateStyle replaces the style of one template
func (s *Store) SetTemplateStyle(template string, st TemplateStyle) {
	s.update(func(d *Document) {
		if d.Templates == nil {
			d.Templates = make(map[string]TemplateStyle)
		}
		d.Templates[template] = st
	})
}
