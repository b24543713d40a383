package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the variant of a question block
type Kind string

const (
	// KindFreeResponse is an essay question answered on ruled lines
	KindFreeResponse Kind = "free-response"
	// KindSingleChoice is a multiple-choice question with one correct option
	KindSingleChoice Kind = "single-choice"
	// KindTrueFalse is a list of statements judged true or false
	KindTrueFalse Kind = "true-false"
)

var (
	ErrUnknownKind   = errors.New("unknown block kind")
	ErrKindChanged   = errors.New("block kind cannot change in place")
	ErrBlockNotFound = errors.New("block not found")
	ErrOutOfRange    = errors.New("index out of range")
	ErrDuplicateID   = errors.New("duplicate id")
)

// ParseKind accepts the canonical kind names and the original wire names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free-response", "free_response", "essay", "dissertativa":
		return KindFreeResponse, nil
	case "single-choice", "single_choice", "multiple-choice", "multipla-escolha":
		return KindSingleChoice, nil
	case "true-false", "true_false", "verdadeiro-falso":
		return KindTrueFalse, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Option is one choice of a single-choice block
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Statement is one item of a true-false block
type Statement struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
	True bool   `json:"true" yaml:"is_true"`
}

// Block is a single question, the unit the pagination engine moves around
type Block struct {
	ID        string `json:"id"`
	Number    int    `json:"number"`
	Kind      Kind   `json:"kind"`
	Statement string `json:"statement"`
	ImageURL  string `json:"image_url,omitempty"`
	Subject   string `json:"subject,omitempty"`

	Options         []Option `json:"options,omitempty"`
	CorrectOptionID string   `json:"correct_option_id,omitempty"`

	Statements []Statement `json:"statements,omitempty"`

	AnswerLines int `json:"answer_lines,omitempty"`
}

// NewID returns a time-ordered unique identifier (UUIDv7).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewFreeResponse creates an essay block with five answer lines.
func NewFreeResponse(number int, subject string) Block {
	return Block{
		ID:          NewID(),
		Number:      number,
		Kind:        KindFreeResponse,
		Subject:     subject,
		Statement:   fmt.Sprintf("Enunciado da questão dissertativa nº %d.", number),
		AnswerLines: 5,
	}
}

// NewSingleChoice creates a multiple-choice block with two options, the first marked correct.
func NewSingleChoice(number int, subject string) Block {
	a := Option{ID: NewID(), Text: "Alternativa A"}
	b := Option{ID: NewID(), Text: "Alternativa B"}
	return Block{
		ID:              NewID(),
		Number:          number,
		Kind:            KindSingleChoice,
		Subject:         subject,
		Statement:       fmt.Sprintf("Enunciado da múltipla escolha nº %d.", number),
		Options:         []Option{a, b},
		CorrectOptionID: a.ID,
	}
}

// NewTrueFalse creates a true-false block with a single true statement.
func NewTrueFalse(number int, subject string) Block {
	return Block{
		ID:        NewID(),
		Number:    number,
		Kind:      KindTrueFalse,
		Subject:   subject,
		Statement: "Julgue os itens a seguir como verdadeiros (V) ou falsos (F).",
		Statements: []Statement{
			{ID: NewID(), Text: "Primeira afirmativa.", True: true},
		},
	}
}

// New dispatches to the factory for kind.
func New(kind Kind, number int, subject string) (Block, error) {
	switch kind {
	case KindFreeResponse:
		return NewFreeResponse(number, subject), nil
	case KindSingleChoice:
		return NewSingleChoice(number, subject), nil
	case KindTrueFalse:
		return NewTrueFalse(number, subject), nil
	}
	return Block{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// CorrectOption returns the option referenced as correct.
// A missing or dangling reference reports false.
func (b Block) CorrectOption() (Option, bool) {
	if b.CorrectOptionID == "" {
		return Option{}, false
	}
	for _, o := range b.Options {
		if o.ID == b.CorrectOptionID {
			return o, true
		}
	}
	return Option{}, false
}

// RemoveOption drops an option and clears the correct reference if it pointed to it.
func (b *Block) RemoveOption(id string) {
	kept := b.Options[:0:0]
	for _, o := range b.Options {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	b.Options = kept
	if b.CorrectOptionID == id {
		b.CorrectOptionID = ""
	}
}

// NormalizeIDs returns a copy of blocks where missing block, option and
// statement ids are generated. Block ids must be unique across the list and
// option and statement ids unique within their block.
func NormalizeIDs(blocks []Block) ([]Block, error) {
	out := make([]Block, len(blocks))
	seen := make(map[string]int, len(blocks))
	for i, b := range blocks {
		nb := b.Clone()
		if nb.ID == "" {
			nb.ID = NewID()
		}
		if j, dup := seen[nb.ID]; dup {
			return nil, fmt.Errorf("%w: block %q at positions %d and %d", ErrDuplicateID, nb.ID, j+1, i+1)
		}
		seen[nb.ID] = i

		items := make(map[string]bool, len(nb.Options)+len(nb.Statements))
		for k := range nb.Options {
			if nb.Options[k].ID == "" {
				nb.Options[k].ID = NewID()
			}
			if items[nb.Options[k].ID] {
				return nil, fmt.Errorf("%w: option %q in block %d", ErrDuplicateID, nb.Options[k].ID, i+1)
			}
			items[nb.Options[k].ID] = true
		}
		for k := range nb.Statements {
			if nb.Statements[k].ID == "" {
				nb.Statements[k].ID = NewID()
			}
			if items[nb.Statements[k].ID] {
				return nil, fmt.Errorf("%w: statement %q in block %d", ErrDuplicateID, nb.Statements[k].ID, i+1)
			}
			items[nb.Statements[k].ID] = true
		}
		out[i] = nb
	}
	return out, nil
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	c := b
	if b.Options != nil {
		c.Options = append([]Option(nil), b.Options...)
	}
	if b.Statements != nil {
		c.Statements = append([]Statement(nil), b.Statements...)
	}
	return c
}

// Fingerprint summarizes everything about the block that can change its rendered height.
func (b Block) Fingerprint() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d|%s|%s|%s|%s|%d", b.ID, b.Number, b.Kind, b.Subject, b.ImageURL, b.Statement, b.AnswerLines)
	for _, o := range b.Options {
		sb.WriteString("|o:")
		sb.WriteString(o.Text)
	}
	for _, s := range b.Statements {
		sb.WriteString("|s:")
		sb.WriteString(s.Text)
	}
	return sb.String()
}
