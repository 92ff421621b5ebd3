package sim

import (
	"context"
	"sync"
	"time"

	"zonecraft.ai/internal/sim/zone/emitter"
)

// StepOnce advances every domain by one tick and returns the cycles that ran,
// ordered by domain id then placement. It is what Run calls on every tick, and
// what tests and offline replays drive directly.
func (s *Simulation) StepOnce() []CycleRecord {
	tick := s.tick.Load()

	results := make([][]emitter.Cycle, len(s.order))
	var wg sync.WaitGroup
	for i, id := range s.order {
		i := i
		d := s.domains[id]
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.step(tick)
		}()
	}
	wg.Wait()

	var out []CycleRecord
	for i, id := range s.order {
		for _, c := range results[i] {
			rec := RecordOf(c)
			out = append(out, rec)
			for _, k := range s.sinks {
				_ = k.WriteCycle(rec)
			}
		}
		if s.frames != nil {
			s.frames.PublishFrame(s.domains[id].frame(tick, results[i]))
		}
	}

	s.tick.Add(1)
	s.maybeSnapshot(s.tick.Load())
	return out
}

func (s *Simulation) maybeSnapshot(next uint64) {
	every := uint64(s.tuning.SnapshotEveryTicks)
	if s.snapshotSink == nil || every == 0 || next%every != 0 {
		return
	}
	snap := s.ExportSnapshot()
	select {
	case s.snapshotSink <- snap:
	default:
		// Writer is behind; the next one will catch up.
	}
}

// Run ticks at the configured rate until ctx is done or Stop is called.
// Commands submitted between ticks are applied, in arrival order, right before
// the next tick.
func (s *Simulation) Run(ctx context.Context) error {
	defer close(s.done)

	interval := time.Second / time.Duration(s.tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []request
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stop:
			return nil
		case req := <-s.reqs:
			pending = append(pending, req)
		case <-ticker.C:
			for _, req := range pending {
				req.resp <- req.cmd.Apply(s)
			}
			pending = pending[:0]
			s.StepOnce()
		}
	}
}

func (s *Simulation) Stop() { close(s.stop) }
