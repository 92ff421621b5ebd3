package zonetest

import (
	"testing"

	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

func TestKindsOverlapInOneRoom(t *testing.T) {
	ox := voxel.Pos{X: 0}
	gr := voxel.Pos{X: 3}
	h := New(t, Tuning(5), Tunnel(corridor, -4, 14))
	place(h, ox)
	h.Apply(sim.PlaceEmitter{
		Domain:  corridor,
		Kind:    "gravity",
		Origin:  gr,
		Payload: []byte(`0.5`),
		Initial: sim.Supply{Energy: 100_000, Gas: 1_500},
	})
	h.StepFor(2)

	oxZone, grZone := h.Zone(corridor, ox), h.Zone(corridor, gr)
	shared := overlap(oxZone, grZone)
	if len(shared) == 0 {
		t.Fatalf("oxygen=%d gravity=%d voxels with both=0", len(oxZone), len(grZone))
	}

	fx := h.Sim.Effects()
	for _, p := range shared {
		if owner, ok := h.Owner(corridor, "oxygen", p); !ok || owner != ox {
			t.Fatalf("%v: oxygen owner=%v ok=%v", p, owner, ok)
		}
		if owner, ok := h.Owner(corridor, "gravity", p); !ok || owner != gr {
			t.Fatalf("%v: gravity owner=%v ok=%v", p, owner, ok)
		}
		if !fx.Oxygen.Breathable(corridor, p) {
			t.Fatalf("%v: not breathable", p)
		}
		if m, ok := fx.Gravity.Field.At(corridor, p); !ok || m != 0.5 {
			t.Fatalf("%v: gravity=%v ok=%v", p, m, ok)
		}
	}

	// Neither kind loses voxels to the other: each zone matches a lone
	// emitter of the same kind in the same terrain.
	for _, tc := range []struct {
		kind   string
		origin voxel.Pos
		other  voxel.Pos
		got    voxel.Set
	}{
		{"oxygen", ox, gr, oxZone},
		{"gravity", gr, ox, grZone},
	} {
		alone := New(t, Tuning(5), Tunnel(corridor, -4, 14))
		alone.Apply(sim.PlaceEmitter{Domain: corridor, Kind: tc.kind, Origin: tc.origin, Initial: sim.Supply{Energy: 100_000, Gas: 1_500}})
		alone.Apply(sim.SetBlock{Domain: corridor, Pos: tc.other, Block: terrain.Emitter})
		alone.StepFor(2)
		if want := alone.Zone(corridor, tc.origin); len(want) != len(tc.got) {
			t.Fatalf("%s zone=%d alone=%d", tc.kind, len(tc.got), len(want))
		}
	}

	d, _ := h.Sim.Domain(corridor)
	if got, want := d.Claimed(), len(oxZone)+len(grZone); got != want {
		t.Fatalf("claimed=%d want %d", got, want)
	}
}
