package voxel

import (
	"encoding/json"
	"testing"
)

func TestFloorDivMod(t *testing.T) {
	cases := []struct{ a, b, q, m int }{
		{0, 16, 0, 0},
		{15, 16, 0, 15},
		{16, 16, 1, 0},
		{-1, 16, -1, 15},
		{-16, 16, -1, 0},
		{-17, 16, -2, 15},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.q {
			t.Fatalf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.q)
		}
		if got := Mod(c.a, c.b); got != c.m {
			t.Fatalf("Mod(%d,%d)=%d want %d", c.a, c.b, got, c.m)
		}
	}
}

func TestPhaseStableAndBounded(t *testing.T) {
	origins := []Pos{{}, {X: 10}, {X: -3, Y: 64, Z: 7}, {X: 1 << 20, Z: -(1 << 20)}}
	for _, o := range origins {
		p := Phase(o, 20)
		if p < 0 || p >= 20 {
			t.Fatalf("phase out of range for %v: %d", o, p)
		}
		if again := Phase(o, 20); again != p {
			t.Fatalf("phase not stable for %v: %d vs %d", o, p, again)
		}
	}
	if Phase(Pos{X: 5}, 1) != 0 || Phase(Pos{X: 5}, 0) != 0 {
		t.Fatalf("expected zero phase for degenerate intervals")
	}
}

func TestSetSorted(t *testing.T) {
	s := NewSet([]Pos{{X: 2}, {X: 1, Z: 5}, {X: 1, Y: -1}})
	got := s.Sorted()
	want := []Pos{{X: 1, Y: -1}, {X: 1, Z: 5}, {X: 2}}
	if len(got) != len(want) {
		t.Fatalf("len=%d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted[%d]=%v want %v", i, got[i], want[i])
		}
	}
	if !s.Has(Pos{X: 2}) || s.Has(Pos{X: 3}) {
		t.Fatalf("membership mismatch")
	}
}

func TestPosJSON(t *testing.T) {
	b, err := json.Marshal(Pos{X: 1, Y: -2, Z: 3})
	if err != nil || string(b) != "[1,-2,3]" {
		t.Fatalf("marshal=%s err=%v", b, err)
	}
	var p Pos
	if err := json.Unmarshal([]byte("[4,5,-6]"), &p); err != nil || p != (Pos{X: 4, Y: 5, Z: -6}) {
		t.Fatalf("unmarshal=%v err=%v", p, err)
	}
	if err := json.Unmarshal([]byte(`{"X":1}`), &p); err == nil {
		t.Fatalf("expected object form to be rejected")
	}
}
