package preview

import (
	"math"
	"sync"
)

// Navigator tracks the visible sheet. The index always stays within
// [0, Total-1]; out-of-range moves clamp.
type Navigator struct {
	mu      sync.RWMutex
	current int
	total   int
}

// NewNavigator starts at sheet 0 of total
func NewNavigator(total int) *Navigator {
	n := &Navigator{}
	n.SetTotal(total)
	return n
}

func (n *Navigator) Current() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

func (n *Navigator) Total() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.total
}

// Next advances one sheet and returns the new index
func (n *Navigator) Next() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current < n.total-1 {
		n.current++
	}
	return n.current
}

// Previous goes back one sheet and returns the new index
func (n *Navigator) Previous() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current > 0 {
		n.current--
	}
	return n.current
}

// Go jumps to index i, clamped
func (n *Navigator) Go(i int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = clamp(i, n.total)
	return n.current
}

// SetTotal changes the sheet count and re-clamps the index, keeping it when
// still valid. A total below 1 is treated as 1.
func (n *Navigator) SetTotal(total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if total < 1 {
		total = 1
	}
	n.total = total
	n.current = clamp(n.current, total)
}

func clamp(i, total int) int {
	if i >= total {
		i = total - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Size is a width and height in pixels
type Size struct {
	Width  float64
	Height float64
}

// FitScale returns the uniform scale that fits page inside container.
// A degenerate page yields 0.
func FitScale(container, page Size) float64 {
	if page.Width <= 0 || page.Height <= 0 {
		return 0
	}
	return math.Min(container.Width/page.Width, container.Height/page.Height)
}
