package trim

import (
	"math/rand"
	"testing"

	"zonecraft.ai/internal/sim/zone/voxel"
)

func cube(n int) []voxel.Pos {
	out := []voxel.Pos{}
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				out = append(out, voxel.Pos{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

func TestTrimSizes(t *testing.T) {
	set := cube(4)
	for _, k := range []int{-1, 0, 1, 10, 64, 100} {
		keep, drop := Trim(voxel.Pos{}, set, k)
		want := k
		if want < 0 {
			want = 0
		}
		if want > len(set) {
			want = len(set)
		}
		if len(keep) != want {
			t.Fatalf("k=%d: keep=%d want %d", k, len(keep), want)
		}
		if len(keep)+len(drop) != len(set) {
			t.Fatalf("k=%d: keep+drop=%d want %d", k, len(keep)+len(drop), len(set))
		}
	}
}

func TestTrimPrefersInteriorThenProximity(t *testing.T) {
	set := cube(3)
	keep, _ := Trim(voxel.Pos{}, set, 1)
	if keep[0] != (voxel.Pos{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("the fully enclosed center should rank first, got %v", keep[0])
	}
	// Face centers score 5; among them the ones closest to the origin win.
	keep, _ = Trim(voxel.Pos{}, set, 4)
	for _, p := range keep[1:] {
		if NeighborScore(voxel.NewSet(set), p) != 5 {
			t.Fatalf("expected face centers after the core, got %v", p)
		}
		if voxel.DistSq(p, voxel.Pos{}) != 2 {
			t.Fatalf("expected face centers touching the origin corner, got %v", p)
		}
	}
}

func TestTrimOrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	origin := voxel.Pos{X: 3, Y: 3, Z: 3}
	for round := 0; round < 20; round++ {
		var set []voxel.Pos
		for i := 0; i < 200; i++ {
			set = append(set, voxel.Pos{X: rng.Intn(8), Y: rng.Intn(8), Z: rng.Intn(8)})
		}
		k := rng.Intn(120)
		keep, drop := Trim(origin, set, k)
		members := voxel.NewSet(set)
		if len(keep) != min(k, len(members)) {
			t.Fatalf("round %d: keep=%d want %d", round, len(keep), min(k, len(members)))
		}
		worstKept := scored{score: 1 << 30}
		for i, p := range keep {
			s := scored{p: p, score: NeighborScore(members, p), distSq: voxel.DistSq(p, origin)}
			if i == 0 || better(worstKept, s) {
				worstKept = s
			}
		}
		for _, p := range drop {
			s := scored{p: p, score: NeighborScore(members, p), distSq: voxel.DistSq(p, origin)}
			if len(keep) > 0 && better(s, worstKept) {
				t.Fatalf("round %d: dropped %v ranks above kept %v", round, s, worstKept)
			}
		}
	}
}

func TestTargetSize(t *testing.T) {
	cases := []struct {
		name     string
		granted  int
		stored   int64
		capacity int64
		want     int
		ok       bool
	}{
		{"above threshold", 4000, 200, 2000, 4000, false},
		{"scales with stored", 4000, 150, 2000, 3000, true},
		{"quarter of threshold", 400, 50, 2000, 100, true},
		{"floor of one", 4000, 0, 2000, 1, true},
		{"tiny capacity", 50, 0, 5, 50, false},
		{"single voxel", 1, 10, 2000, 1, false},
	}
	for _, c := range cases {
		got, ok := TargetSize(c.granted, c.stored, c.capacity)
		if got != c.want || ok != c.ok {
			t.Fatalf("%s: got (%d,%v) want (%d,%v)", c.name, got, ok, c.want, c.ok)
		}
	}
}
