package content

import (
	"fmt"
	"sort"
)

// List is the ordered, renumbered working set of blocks.
// Every mutation leaves ordinals contiguous from 1 in list order.
type List struct {
	blocks []Block
}

// NewList builds a list from blocks, renumbering them.
func NewList(blocks ...Block) *List {
	l := &List{blocks: make([]Block, 0, len(blocks))}
	for _, b := range blocks {
		l.blocks = append(l.blocks, b.Clone())
	}
	l.renumber()
	return l
}

// Len returns the number of blocks
func (l *List) Len() int { return len(l.blocks) }

// Blocks returns a copy of the blocks in order
func (l *List) Blocks() []Block {
	out := make([]Block, len(l.blocks))
	for i, b := range l.blocks {
		out[i] = b.Clone()
	}
	return out
}

// Get returns the block with id
func (l *List) Get(id string) (Block, bool) {
	if i := l.index(id); i >= 0 {
		return l.blocks[i].Clone(), true
	}
	return Block{}, false
}

// Append adds a block at the end and returns it renumbered.
func (l *List) Append(b Block) Block {
	l.blocks = append(l.blocks, b.Clone())
	l.renumber()
	return l.blocks[len(l.blocks)-1].Clone()
}

// Insert places b at index i (0 <= i <= Len).
func (l *List) Insert(i int, b Block) error {
	if i < 0 || i > len(l.blocks) {
		return fmt.Errorf("%w: insert at %d of %d", ErrOutOfRange, i, len(l.blocks))
	}
	l.blocks = append(l.blocks, Block{})
	copy(l.blocks[i+1:], l.blocks[i:])
	l.blocks[i] = b.Clone()
	l.renumber()
	return nil
}

// Delete removes the block with id.
func (l *List) Delete(id string) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	l.blocks = append(l.blocks[:i], l.blocks[i+1:]...)
	l.renumber()
	return nil
}

// DeleteWhere removes every block matching pred and returns how many were removed.
func (l *List) DeleteWhere(pred func(Block) bool) int {
	kept := l.blocks[:0]
	removed := 0
	for _, b := range l.blocks {
		if pred(b) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	l.blocks = kept
	l.renumber()
	return removed
}

// Move relocates the block at from to index to, shifting the blocks in between.
func (l *List) Move(from, to int) error {
	n := len(l.blocks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d of %d", ErrOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	b := l.blocks[from]
	if from < to {
		copy(l.blocks[from:to], l.blocks[from+1:to+1])
	} else {
		copy(l.blocks[to+1:from+1], l.blocks[to:from])
	}
	l.blocks[to] = b
	l.renumber()
	return nil
}

// MoveID relocates the block with id so that it ends at index to.
func (l *List) MoveID(id string, to int) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	return l.Move(i, to)
}

// Replace swaps the whole record of block id; the kind must not change.
func (l *List) Replace(id string, b Block) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	if b.Kind != l.blocks[i].Kind {
		return fmt.Errorf("%w: %s -> %s", ErrKindChanged, l.blocks[i].Kind, b.Kind)
	}
	nb := b.Clone()
	nb.ID = id
	l.blocks[i] = nb
	l.renumber()
	return nil
}

func (l *List) index(id string) int {
	for i, b := range l.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (l *List) renumber() {
	for i := range l.blocks {
		l.blocks[i].Number = i + 1
	}
}

// Renumber returns a copy of blocks with ordinals 1..n in order.
func Renumber(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
		out[i].Number = i + 1
	}
	return out
}

// Arrange keeps the blocks whose subject is selected, orders them by subject
// tab position and then by original position, and renumbers the result.
func Arrange(blocks []Block, subjects []string) []Block {
	rank := make(map[string]int, len(subjects))
	for i, s := range subjects {
		if _, dup := rank[s]; !dup {
			rank[s] = i
		}
	}
	type indexed struct {
		b   Block
		pos int
	}
	kept := make([]indexed, 0, len(blocks))
	for i, b := range blocks {
		if _, ok := rank[b.Subject]; ok {
			kept = append(kept, indexed{b: b, pos: i})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		ri, rj := rank[kept[i].b.Subject], rank[kept[j].b.Subject]
		if ri != rj {
			return ri < rj
		}
		return kept[i].pos < kept[j].pos
	})
	out := make([]Block, len(kept))
	for i, k := range kept {
		out[i] = k.b
	}
	return Renumber(out)
}

// ForSubject returns the blocks tagged with subject, in list order.
func ForSubject(blocks []Block, subject string) []Block {
	var out []Block
	for _, b := range blocks {
		if b.Subject == subject {
			out = append(out, b.Clone())
		}
	}
	return out
}
