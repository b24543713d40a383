package measure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Options controls measurement fan-out and settling
type Options struct {
	Concurrency int
	RetryDelay  time.Duration
	MaxAttempts int
}

// DefaultOptions returns the measurement defaults
func DefaultOptions() Options {
	return Options{Concurrency: 4, RetryDelay: 50 * time.Millisecond, MaxAttempts: 20}
}

// Measurer measures block lists and owns the per-block height cache. The
// cache is rebuilt wholesale whenever the block set, any block's content or
// the frame changes.
type Measurer struct {
	est  HeightEstimator
	opts Options
	log  *logger.Logger

	mu          sync.Mutex
	cache       Heights
	fingerprint string
}

// New creates a measurer over est
func New(est HeightEstimator, opts Options, log *logger.Logger) *Measurer {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	return &Measurer{est: est, opts: opts, log: logger.OrNop(log)}
}

// Measure returns the height of every block in frame f. Blocks that are not
// ready are retried after RetryDelay; once MaxAttempts rounds pass with
// blocks still unsettled ErrUnsettled is returned and the cache is left
// untouched.
func (m *Measurer) Measure(ctx context.Context, blocks []content.Block, f Frame) (Heights, error) {
	fp := fingerprint(blocks, f)

	m.mu.Lock()
	if m.cache != nil && m.fingerprint == fp {
		h := m.cache.Clone()
		m.mu.Unlock()
		return h, nil
	}
	m.mu.Unlock()

	heights := make([]float64, len(blocks))
	pending := make([]int, len(blocks))
	for i := range blocks {
		pending[i] = i
	}

	for attempt := 1; len(pending) > 0; attempt++ {
		notReady, err := m.round(ctx, blocks, f, pending, heights)
		if err != nil {
			return nil, err
		}
		pending = notReady
		if len(pending) == 0 {
			break
		}
		if attempt >= m.opts.MaxAttempts {
			m.log.Warn("measurement did not settle", "pending", len(pending), "attempts", attempt)
			return nil, fmt.Errorf("%w: %d of %d blocks after %d attempts", ErrUnsettled, len(pending), len(blocks), attempt)
		}
		m.log.Debug("retrying measurement", "pending", len(pending), "attempt", attempt)
		timer := time.NewTimer(m.opts.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	out := make(Heights, len(blocks))
	for i, b := range blocks {
		out[b.ID] = heights[i]
	}

	m.mu.Lock()
	m.cache = out.Clone()
	m.fingerprint = fp
	m.mu.Unlock()
	return out, nil
}

// round measures the pending indexes concurrently and returns those still not ready
func (m *Measurer) round(ctx context.Context, blocks []content.Block, f Frame, pending []int, heights []float64) ([]int, error) {
	ready := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for slot, idx := range pending {
		slot, idx := slot, idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, err := m.est.BlockHeight(gctx, blocks[idx], f)
			if errors.Is(err, ErrNotReady) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to measure block %d: %w", blocks[idx].Number, err)
			}
			if h > 0 {
				heights[idx] = h
				ready[slot] = true
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	var notReady []int
	for slot, idx := range pending {
		if !ready[slot] {
			notReady = append(notReady, idx)
		}
	}
	return notReady, nil
}

// Invalidate drops the cache
func (m *Measurer) Invalidate() {
	m.mu.Lock()
	m.cache = nil
	m.fingerprint = ""
	m.mu.Unlock()
}

func fingerprint(blocks []content.Block, f Frame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%.3f|%.3f|%s", f.Width, f.FontSizePx, f.FontFamily)
	for _, b := range blocks {
		sb.WriteString("\x00")
		sb.WriteString(b.Fingerprint())
	}
	return sb.String()
}
