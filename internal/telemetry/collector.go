// Package telemetry rolls cycle records up into fixed tick windows and writes
// one CSV row per domain and kind per window.
package telemetry

import (
	"sync"

	"zonecraft.ai/internal/sim"
)

// Collector is a sim.CycleSink. Records arrive in tick order; the first record
// at or past the current window's end closes that window.
type Collector struct {
	size uint64
	out  *CSVWriter

	mu      sync.Mutex
	cur     *window
	written int
}

func NewCollector(windowTicks int, out *CSVWriter) *Collector {
	if windowTicks <= 0 {
		windowTicks = 1
	}
	return &Collector{size: uint64(windowTicks), out: out}
}

func (c *Collector) WriteCycle(rec sim.CycleRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := rec.Tick - rec.Tick%c.size
	if c.cur != nil && start != c.cur.start {
		if err := c.flushLocked(); err != nil {
			return err
		}
	}
	if c.cur == nil {
		c.cur = newWindow(start, c.size)
	}
	c.cur.add(rec)
	return nil
}

// Rows reports how many rows have been written so far.
func (c *Collector) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

func (c *Collector) flushLocked() error {
	if c.cur == nil {
		return nil
	}
	rows := c.cur.rows()
	c.cur = nil
	c.written += len(rows)
	return c.out.Write(rows)
}

// Close writes the partial window and closes the output.
func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.flushLocked()
	if cerr := c.out.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ sim.CycleSink = (*Collector)(nil)
