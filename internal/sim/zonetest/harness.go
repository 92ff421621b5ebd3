// Package zonetest drives a simulation through its exported API only, so
// end-to-end tests can live outside the sim package.
package zonetest

import (
	"testing"

	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// Harness wraps a Simulation with recording sinks:
// - every cycle record lands in Cycles
// - the latest frame per domain lands in Frames
type Harness struct {
	T   *testing.T
	Sim *sim.Simulation

	Cycles []sim.CycleRecord
	Frames map[string]protocol.FrameMsg
}

type recorder struct{ h *Harness }

func (r recorder) WriteCycle(rec sim.CycleRecord) error {
	r.h.Cycles = append(r.h.Cycles, rec)
	return nil
}

func (r recorder) PublishFrame(f protocol.FrameMsg) { r.h.Frames[f.Domain] = f }

// Tuning is a fast profile for tests: every emitter distributes every tick and
// the radius never grows on its own.
func Tuning(initialRadius int) tuning.Tuning {
	t := tuning.Defaults()
	t.SnapshotEveryTicks = 0
	t.Zone = tuning.ZoneTuning{
		InitialRadius:             initialRadius,
		ExpansionIntervalTicks:    1_000_000,
		DistributionIntervalTicks: 1,
		MaxVoxels:                 4096,
	}
	return t
}

func New(t *testing.T, tn tuning.Tuning, l layout.Config) *Harness {
	t.Helper()
	s, err := sim.FromLayout(tn, l)
	if err != nil {
		t.Fatalf("sim.FromLayout: %v", err)
	}
	return Wrap(t, s)
}

// Wrap attaches recording sinks to an existing simulation, for example one
// restored from a snapshot.
func Wrap(t *testing.T, s *sim.Simulation) *Harness {
	h := &Harness{T: t, Sim: s, Frames: map[string]protocol.FrameMsg{}}
	s.AddCycleSink(recorder{h})
	s.SetFrameSink(recorder{h})
	return h
}

func (h *Harness) Step() []sim.CycleRecord { return h.Sim.StepOnce() }

func (h *Harness) StepFor(n int) {
	for i := 0; i < n; i++ {
		h.Sim.StepOnce()
	}
}

func (h *Harness) Apply(cmd sim.Command) {
	h.T.Helper()
	if err := cmd.Apply(h.Sim); err != nil {
		h.T.Fatalf("apply %T: %v", cmd, err)
	}
}

func (h *Harness) Emitter(domain string, origin voxel.Pos) emitter.Ticker {
	h.T.Helper()
	e, err := h.Sim.Emitter(voxel.DomainID(domain), origin)
	if err != nil {
		h.T.Fatalf("emitter: %v", err)
	}
	return e
}

func (h *Harness) Zone(domain string, origin voxel.Pos) voxel.Set {
	return voxel.NewSet(h.Emitter(domain, origin).Zone())
}

// Owner reports who holds p in the kind's claim table of domain.
func (h *Harness) Owner(domain, kind string, p voxel.Pos) (voxel.Pos, bool) {
	h.T.Helper()
	d, err := h.Sim.Domain(voxel.DomainID(domain))
	if err != nil {
		h.T.Fatalf("domain: %v", err)
	}
	return d.Claims(kind).Owner(p)
}

// Tunnel is a single domain whose only open space is a 3x3 tunnel along X,
// from x0 to x1, centred on y=0,z=0 and sealed at both ends.
func Tunnel(id string, x0, x1 int) layout.Config {
	cfg := layout.Config{Domains: []layout.DomainSpec{{
		ID:   id,
		MinY: -16,
		MaxY: 16,
		Boxes: []layout.BoxSpec{
			{Op: "shell", Block: "solid", Min: [3]int{x0 - 1, -2, -2}, Max: [3]int{x1 + 1, 2, 2}},
		},
	}}}
	cfg.Normalize()
	return cfg
}
