package sim

import (
	"errors"
	"testing"

	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

func TestDecodeCommand(t *testing.T) {
	cases := []struct {
		raw  string
		want Command
	}{
		{`{"type":"place","domain":"station","kind":"Gravity","origin":[1,2,3],"payload":0.5,"supply":{"energy":5,"gas":1}}`,
			PlaceEmitter{Domain: "station", Kind: "gravity", Origin: voxel.Pos{X: 1, Y: 2, Z: 3}, Payload: []byte(`0.5`), Supply: Supply{Energy: 5, Gas: 1}}},
		{`{"type":"remove","domain":"station","origin":[0,1,0]}`,
			RemoveEmitter{Domain: "station", Origin: voxel.Pos{Y: 1}}},
		{`{"type":"DISABLE","domain":"station","origin":[0,1,0],"disabled":true}`,
			SetDisabled{Domain: "station", Origin: voxel.Pos{Y: 1}, Disabled: true}},
		{`{"type":"block","domain":"station","origin":[4,1,0],"block":"glass"}`,
			SetBlock{Domain: "station", Pos: voxel.Pos{X: 4, Y: 1}, Block: terrain.Glass}},
	}
	for _, tc := range cases {
		got, err := DecodeCommand([]byte(tc.raw))
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		switch want := tc.want.(type) {
		case PlaceEmitter:
			p, ok := got.(PlaceEmitter)
			if !ok || p.Domain != want.Domain || p.Kind != want.Kind || p.Origin != want.Origin || string(p.Payload) != string(want.Payload) || p.Supply != want.Supply {
				t.Fatalf("%s: got %+v", tc.raw, got)
			}
		default:
			if got != tc.want {
				t.Fatalf("%s: got %+v want %+v", tc.raw, got, tc.want)
			}
		}
	}
}

func TestDecodeCommandRejects(t *testing.T) {
	for _, raw := range []string{
		`{`,
		`{"type":"place"}`,
		`{"type":"explode","domain":"station"}`,
		`{"type":"payload","domain":"station","origin":[0,0,0]}`,
		`{"type":"supply","domain":"station","origin":[0,0,0],"supply":{"energy":-1}}`,
		`{"type":"block","domain":"station","origin":[0,0,0],"block":"lava"}`,
	} {
		if _, err := DecodeCommand([]byte(raw)); !errors.Is(err, ErrBadCommand) {
			t.Fatalf("%s: err=%v", raw, err)
		}
	}
}
