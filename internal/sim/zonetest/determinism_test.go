package zonetest

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// twoRooms has two domains with two emitters each, staggered phases and a
// slowly growing radius.
func twoRooms() (tuning.Tuning, layout.Config) {
	tn := tuning.Defaults()
	tn.SnapshotEveryTicks = 0
	tn.Zone = tuning.ZoneTuning{
		InitialRadius:             2,
		ExpansionIntervalTicks:    7,
		DistributionIntervalTicks: 5,
		MaxVoxels:                 500,
	}
	room := func(id string) layout.DomainSpec {
		return layout.DomainSpec{
			ID: id, MinY: 0, MaxY: 32,
			Boxes: []layout.BoxSpec{{Op: "shell", Block: "solid", Min: [3]int{-8, 0, -8}, Max: [3]int{8, 8, 8}}},
			Emitters: []layout.EmitterSpec{
				{Kind: "oxygen", Origin: [3]int{-3, 1, 0}, Supply: layout.AmountSpec{Energy: 20, Gas: 2}, Initial: layout.AmountSpec{Energy: 500, Gas: 300}},
				{Kind: "gravity", Origin: [3]int{3, 1, 0}, Payload: 0.4, Supply: layout.AmountSpec{Energy: 40, Gas: 1}, Initial: layout.AmountSpec{Energy: 800, Gas: 100}},
			},
		}
	}
	l := layout.Config{Domains: []layout.DomainSpec{room("alpha"), room("beta")}}
	l.Normalize()
	return tn, l
}

func TestDeterministicAcrossRuns(t *testing.T) {
	tn, l := twoRooms()
	h1 := New(t, tn, l)
	h2 := New(t, tn, l)

	wall := sim.SetBlock{Domain: "alpha", Pos: voxel.Pos{X: 0, Y: 1, Z: 0}, Block: terrain.Solid}
	for tick := 0; tick < 120; tick++ {
		if tick == 40 {
			h1.Apply(wall)
			h2.Apply(wall)
		}
		h1.Step()
		h2.Step()
		if d1, d2 := h1.Sim.StateDigest(), h2.Sim.StateDigest(); d1 != d2 {
			t.Fatalf("tick %d: digests diverged", tick)
		}
	}
	if len(h1.Cycles) == 0 || len(h1.Cycles) != len(h2.Cycles) {
		t.Fatalf("cycles=%d/%d", len(h1.Cycles), len(h2.Cycles))
	}
	for i := range h1.Cycles {
		if h1.Cycles[i] != h2.Cycles[i] {
			t.Fatalf("cycle %d differs: %+v vs %+v", i, h1.Cycles[i], h2.Cycles[i])
		}
	}
}

func TestCycleRecordsOrderedByDomainThenPlacement(t *testing.T) {
	tn, l := twoRooms()
	tn.Zone.DistributionIntervalTicks = 1
	h := New(t, tn, l)
	recs := h.Step()
	if len(recs) != 4 {
		t.Fatalf("records=%d want 4", len(recs))
	}
	want := []struct {
		domain string
		kind   string
	}{{"alpha", "oxygen"}, {"alpha", "gravity"}, {"beta", "oxygen"}, {"beta", "gravity"}}
	for i, w := range want {
		if recs[i].Domain != w.domain || recs[i].Kind != w.kind {
			t.Fatalf("record %d = %s/%s want %s/%s", i, recs[i].Domain, recs[i].Kind, w.domain, w.kind)
		}
	}
	if f := h.Frames["beta"]; f.Tick != 0 || len(f.Emitters) != 2 || len(f.Emitters[0].Zone) == 0 {
		t.Fatalf("beta frame=%+v", f)
	}
}

func TestSnapshotResumesExactly(t *testing.T) {
	tn, l := twoRooms()
	h := New(t, tn, l)
	h.StepFor(33)
	h.Apply(sim.SetPayload{Domain: "beta", Origin: voxel.Pos{X: 3, Y: 1}, Payload: json.RawMessage(`1.7`)})
	h.Apply(sim.SetDisabled{Domain: "alpha", Origin: voxel.Pos{X: -3, Y: 1}, Disabled: true})
	h.StepFor(4)

	snap := h.Sim.ExportSnapshot()
	path := snapshot.PathFor(filepath.Join(t.TempDir(), "snapshots"), snap.Header.Tick)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	read, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	restored, err := sim.FromSnapshot(tn, read)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if got := restored.StateDigest(); got != read.Header.Digest {
		t.Fatalf("restored digest %s want %s", got, read.Header.Digest)
	}
	if restored.CurrentTick() != h.Sim.CurrentTick() {
		t.Fatalf("tick=%d want %d", restored.CurrentTick(), h.Sim.CurrentTick())
	}

	g := Wrap(t, restored)
	start := len(h.Cycles)
	for i := 0; i < 60; i++ {
		h.Step()
		g.Step()
		if h.Sim.StateDigest() != g.Sim.StateDigest() {
			t.Fatalf("diverged %d ticks after restore", i+1)
		}
	}
	if len(g.Cycles) != len(h.Cycles)-start {
		t.Fatalf("cycles after restore=%d want %d", len(g.Cycles), len(h.Cycles)-start)
	}

	// Restored effects are live, not just bookkeeping.
	gz := g.Zone("beta", voxel.Pos{X: 3, Y: 1})
	if len(gz) == 0 {
		t.Fatalf("restored gravity emitter has no zone")
	}
	for p := range gz {
		if m := restored.Effects().Gravity.Multiplier("beta", p, 1); m != 1.7 {
			t.Fatalf("gravity at %v = %v want 1.7", p, m)
		}
		break
	}
}
