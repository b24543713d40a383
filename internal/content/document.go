package content

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk description of an exam sheet
type Document struct {
	Template string
	Category string
	Grade    string
	Class    string
	Subjects []string
	Blocks   []Block
}

type documentFile struct {
	Template string      `yaml:"template"`
	Category string      `yaml:"category"`
	Grade    string      `yaml:"grade"`
	Class    string      `yaml:"class"`
	Subjects []string    `yaml:"subjects"`
	Blocks   []blockFile `yaml:"blocks"`
}

type blockFile struct {
	ID          string          `yaml:"id,omitempty"`
	Kind        string          `yaml:"kind"`
	Statement   string          `yaml:"statement"`
	Image       string          `yaml:"image,omitempty"`
	Subject     string          `yaml:"subject,omitempty"`
	Options     []optionFile    `yaml:"options,omitempty"`
	Statements  []statementFile `yaml:"statements,omitempty"`
	AnswerLines int             `yaml:"answer_lines,omitempty"`
}

type optionFile struct {
	ID      string `yaml:"id,omitempty"`
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct,omitempty"`
}

type statementFile struct {
	ID   string `yaml:"id,omitempty"`
	Text string `yaml:"text"`
	True bool   `yaml:"is_true"`
}

// LoadDocumentFile reads a YAML document from path
func LoadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return LoadDocument(f)
}

// LoadDocument decodes a YAML document. Missing identifiers are generated
// and ordinals follow file order.
func LoadDocument(r io.Reader) (*Document, error) {
	var df documentFile
	if err := yaml.NewDecoder(r).Decode(&df); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	doc := &Document{
		Template: df.Template,
		Category: df.Category,
		Grade:    df.Grade,
		Class:    df.Class,
		Subjects: df.Subjects,
		Blocks:   make([]Block, 0, len(df.Blocks)),
	}
	for i, bf := range df.Blocks {
		b, err := bf.toBlock()
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		doc.Blocks = append(doc.Blocks, b)
	}
	blocks, err := NormalizeIDs(doc.Blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	doc.Blocks = Renumber(blocks)
	return doc, nil
}

func (bf blockFile) toBlock() (Block, error) {
	kind, err := ParseKind(bf.Kind)
	if err != nil {
		return Block{}, err
	}
	b := Block{
		ID:          bf.ID,
		Kind:        kind,
		Statement:   bf.Statement,
		ImageURL:    bf.Image,
		Subject:     bf.Subject,
		AnswerLines: bf.AnswerLines,
	}
	for _, of := range bf.Options {
		o := Option{ID: of.ID, Text: of.Text}
		if o.ID == "" {
			o.ID = NewID()
		}
		if of.Correct {
			b.CorrectOptionID = o.ID
		}
		b.Options = append(b.Options, o)
	}
	for _, sf := range bf.Statements {
		b.Statements = append(b.Statements, Statement{ID: sf.ID, Text: sf.Text, True: sf.True})
	}
	return b, nil
}

// SaveDocument writes doc as YAML.
func SaveDocument(w io.Writer, doc *Document) error {
	df := documentFile{
		Template: doc.Template,
		Category: doc.Category,
		Grade:    doc.Grade,
		Class:    doc.Class,
		Subjects: doc.Subjects,
	}
	for _, b := range doc.Blocks {
		bf := blockFile{
			ID:          b.ID,
			Kind:        string(b.Kind),
			Statement:   b.Statement,
			Image:       b.ImageURL,
			Subject:     b.Subject,
			AnswerLines: b.AnswerLines,
		}
		for _, o := range b.Options {
			bf.Options = append(bf.Options, optionFile{ID: o.ID, Text: o.Text, Correct: o.ID == b.CorrectOptionID})
		}
		for _, s := range b.Statements {
			bf.Statements = append(bf.Statements, statementFile{ID: s.ID, Text: s.Text, True: s.True})
		}
		df.Blocks = append(df.Blocks, bf)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(df); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return enc.Close()
}
