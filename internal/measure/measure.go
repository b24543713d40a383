package measure

import (
	"context"
	"errors"

	"github.com/gompdf/gomprova/internal/content"
)

var (
	// ErrNotReady reports a block whose layout has not settled yet
	ErrNotReady = errors.New("block layout not ready")
	// ErrUnsettled reports blocks that never settled within the retry budget
	ErrUnsettled = errors.New("block layout did not settle")
)

// Frame is the width and base style a block is measured at. Width is the
// final column width in pixels.
type Frame struct {
	Width      float64
	FontSizePx float64
	FontFamily string
}

// HeightEstimator returns the rendered height of a block in pixels.
// Implementations return ErrNotReady, or a non-positive height, while the
// block cannot be measured yet.
type HeightEstimator interface {
	BlockHeight(ctx context.Context, b content.Block, f Frame) (float64, error)
}

// HeightEstimatorFunc adapts a function to HeightEstimator
type HeightEstimatorFunc func(ctx context.Context, b content.Block, f Frame) (float64, error)

func (fn HeightEstimatorFunc) BlockHeight(ctx context.Context, b content.Block, f Frame) (float64, error) {
	return fn(ctx, b, f)
}

// Heights maps block ids to measured heights
type Heights map[string]float64

// Clone returns a copy
func (h Heights) Clone() Heights {
	c := make(Heights, len(h))
	for k, v := range h {
		c[k] = v
	}
	return c
}

// Default structural spacing in pixels
const (
	DefaultBlockMargin       = 16.0
	DefaultGroupHeaderHeight = 56.0
)

// Spacing is the structural space added around measured blocks
type Spacing struct {
	BlockMargin       float64
	GroupHeaderHeight float64
	Grouping          bool
}

// DefaultSpacing returns the spacing with grouping set as given
func DefaultSpacing(grouping bool) Spacing {
	return Spacing{BlockMargin: DefaultBlockMargin, GroupHeaderHeight: DefaultGroupHeaderHeight, Grouping: grouping}
}

// NeedsGroupHeader reports whether a block tagged tag needs a group header
// after a block tagged prevTag. prevTag is empty before the first block.
func NeedsGroupHeader(prevTag, tag string, grouping bool) bool {
	return grouping && tag != "" && tag != prevTag
}

// Contribution is the vertical space a block of the given height occupies
// once placed after a block tagged prevTag.
func Contribution(s Spacing, height float64, prevTag, tag string) float64 {
	c := height + s.BlockMargin
	if NeedsGroupHeader(prevTag, tag, s.Grouping) {
		c += s.GroupHeaderHeight
	}
	return c
}
