// Package memstat accounts for scratch buffer allocations made while
// rendering pages.
package memstat

import (
	"sync"

	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"inkview/pkg/proto"
)

// Stats is a snapshot of the allocation window. Peak is the highest level
// since the collector was created and survives Report.
type Stats struct {
	Current bytesize.ByteSize
	Min     bytesize.ByteSize
	Max     bytesize.ByteSize
	Initial bytesize.ByteSize
	Peak    bytesize.ByteSize
	Allocs  int
}

// Collector is a bitmap.Allocator that tracks live bytes. A zero budget
// means unlimited.
type Collector struct {
	logger *zap.Logger
	budget int64

	mu      sync.Mutex
	current int64
	min     int64
	max     int64
	initial int64
	peak    int64
	allocs  int
}

func New(logger *zap.Logger, budget bytesize.ByteSize) *Collector {
	return &Collector{logger: logger, budget: int64(budget)}
}

func (c *Collector) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, proto.RangeError("alloc", "negative size %d", n)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.budget > 0 && c.current+int64(n) > c.budget {
		c.logger.With(
			zap.Stringer("want", bytesize.New(float64(n))),
			zap.Stringer("current", bytesize.New(float64(c.current))),
			zap.Stringer("budget", bytesize.New(float64(c.budget))),
		).Debug("alloc-over-budget")
		return nil, proto.ResourceError("alloc", errors.Errorf("%s exceeds budget %s",
			bytesize.New(float64(n)), bytesize.New(float64(c.budget))))
	}

	c.current += int64(n)
	c.allocs++
	if c.current > c.max {
		c.max = c.current
	}
	if c.current > c.peak {
		c.peak = c.current
	}

	return make([]byte, n), nil
}

func (c *Collector) Free(p []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current -= int64(len(p))
	if c.current < 0 {
		c.current = 0
	}
	if c.current < c.min {
		c.min = c.current
	}
}

// Stats returns the current window without resetting it.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats()
}

// Report logs the window and starts a new one at the current level.
func (c *Collector) Report() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats()
	c.logger.With(
		zap.Stringer("current", s.Current),
		zap.Stringer("min", s.Min),
		zap.Stringer("max", s.Max),
		zap.Stringer("initial", s.Initial),
		zap.Stringer("peak", s.Peak),
		zap.Int("allocs", s.Allocs),
	).Info("memory-report")

	c.initial = c.current
	c.min = c.current
	c.max = c.current
	c.allocs = 0
	return s
}

func (c *Collector) stats() Stats {
	return Stats{
		Current: bytesize.New(float64(c.current)),
		Min:     bytesize.New(float64(c.min)),
		Max:     bytesize.New(float64(c.max)),
		Initial: bytesize.New(float64(c.initial)),
		Peak:    bytesize.New(float64(c.peak)),
		Allocs:  c.allocs,
	}
}
