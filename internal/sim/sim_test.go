package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
	"zonecraft.ai/internal/sim/zone/kinds"
	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

func station(t *testing.T, tn tuning.Tuning) *Simulation {
	t.Helper()
	l, err := layout.Load("")
	if err != nil {
		t.Fatalf("layout.Load: %v", err)
	}
	s, err := FromLayout(tn, l)
	if err != nil {
		t.Fatalf("FromLayout: %v", err)
	}
	return s
}

func TestPlaceAndRemoveMarkOriginBlock(t *testing.T) {
	s := station(t, tuning.Defaults())
	d, _ := s.Domain("station")
	origin := voxel.Pos{X: 2, Y: 1, Z: 2}

	if _, err := s.Place(PlaceEmitter{Domain: "station", Kind: "gravity", Origin: origin}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if b := d.Store().GetBlock(origin); b != terrain.Emitter {
		t.Fatalf("origin block=%d want emitter", b)
	}
	if got := len(d.Emitters()); got != 2 {
		t.Fatalf("emitters=%d want 2", got)
	}

	if err := s.RemoveEmitter("station", origin); err != nil {
		t.Fatalf("RemoveEmitter: %v", err)
	}
	if b := d.Store().GetBlock(origin); b != terrain.Air {
		t.Fatalf("origin block=%d want air", b)
	}
	if d.Emitter(origin) != nil {
		t.Fatalf("emitter still registered")
	}
}

func TestCommandErrors(t *testing.T) {
	s := station(t, tuning.Defaults())
	cases := []struct {
		name string
		cmd  Command
		want error
	}{
		{"unknown domain", PlaceEmitter{Domain: "nowhere", Kind: "oxygen"}, ErrUnknownDomain},
		{"duplicate", PlaceEmitter{Domain: "station", Kind: "oxygen", Origin: voxel.Pos{Y: 1}}, ErrDuplicateEmitter},
		{"unknown kind", PlaceEmitter{Domain: "station", Kind: "plasma", Origin: voxel.Pos{X: 1, Y: 1}}, kinds.ErrUnknownKind},
		{"remove missing", RemoveEmitter{Domain: "station", Origin: voxel.Pos{X: 4, Y: 4}}, ErrUnknownEmitter},
		{"disable missing", SetDisabled{Domain: "station", Origin: voxel.Pos{X: 4, Y: 4}}, ErrUnknownEmitter},
		{"payload missing", SetPayload{Domain: "station", Origin: voxel.Pos{X: 4, Y: 4}}, ErrUnknownEmitter},
		{"supply missing", SetSupply{Domain: "station", Origin: voxel.Pos{X: 4, Y: 4}}, ErrUnknownEmitter},
		{"block unknown domain", SetBlock{Domain: "nowhere"}, ErrUnknownDomain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cmd.Apply(s); !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}

	if err := (SetBlock{Domain: "station", Pos: voxel.Pos{Y: 400}, Block: terrain.Solid}).Apply(s); err == nil {
		t.Fatalf("expected out of bounds error")
	}
	if err := (SetPayload{Domain: "station", Origin: voxel.Pos{Y: 1}, Payload: []byte(`{`)}).Apply(s); err == nil {
		t.Fatalf("expected payload decode error")
	}
}

func TestSupplyFeedsReservoirs(t *testing.T) {
	tn := tuning.Defaults()
	s := station(t, tn)
	origin := voxel.Pos{Y: 1}
	if err := (SetDisabled{Domain: "station", Origin: origin, Disabled: true}).Apply(s); err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}
	if err := (SetSupply{Domain: "station", Origin: origin, Supply: Supply{Energy: 7, Gas: 3}}).Apply(s); err != nil {
		t.Fatalf("SetSupply: %v", err)
	}
	e, _ := s.Emitter("station", origin)
	e0, g0 := e.Energy().Stored(), e.Gas().Stored()
	for i := 0; i < 4; i++ {
		s.StepOnce()
	}
	if got := e.Energy().Stored() - e0; got != 28 {
		t.Fatalf("energy gained %d want 28", got)
	}
	if got := e.Gas().Stored() - g0; got != 12 {
		t.Fatalf("gas gained %d want 12", got)
	}
}

func TestSnapshotSinkCadence(t *testing.T) {
	tn := tuning.Defaults()
	tn.SnapshotEveryTicks = 5
	s := station(t, tn)
	ch := make(chan snapshot.SnapshotV1, 8)
	s.SetSnapshotSink(ch)

	for i := 0; i < 12; i++ {
		s.StepOnce()
	}
	close(ch)
	var ticks []uint64
	for snap := range ch {
		ticks = append(ticks, snap.Header.Tick)
		if snap.Header.Digest == "" || len(snap.Emitters) != 1 {
			t.Fatalf("snapshot at %d: digest=%q emitters=%d", snap.Header.Tick, snap.Header.Digest, len(snap.Emitters))
		}
	}
	if len(ticks) != 2 || ticks[0] != 5 || ticks[1] != 10 {
		t.Fatalf("snapshot ticks=%v want [5 10]", ticks)
	}
}

func TestSnapshotSinkNeverBlocks(t *testing.T) {
	tn := tuning.Defaults()
	tn.SnapshotEveryTicks = 1
	s := station(t, tn)
	s.SetSnapshotSink(make(chan snapshot.SnapshotV1))
	for i := 0; i < 3; i++ {
		s.StepOnce()
	}
	if s.CurrentTick() != 3 {
		t.Fatalf("tick=%d", s.CurrentTick())
	}
}

func TestRunAppliesSubmittedCommands(t *testing.T) {
	tn := tuning.Defaults()
	tn.TickRateHz = 1000
	s := station(t, tn)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer reqCancel()

	origin := voxel.Pos{X: -2, Y: 1, Z: -2}
	if err := s.Submit(reqCtx, PlaceEmitter{Domain: "station", Kind: "gravity", Origin: origin, Payload: []byte(`0.5`)}); err != nil {
		t.Fatalf("Submit place: %v", err)
	}
	if err := s.Submit(reqCtx, PlaceEmitter{Domain: "station", Kind: "gravity", Origin: origin}); !errors.Is(err, ErrDuplicateEmitter) {
		t.Fatalf("duplicate submit err=%v", err)
	}

	var n int
	if err := s.Do(reqCtx, func(s *Simulation) error {
		r, err := s.Reports("station")
		n = len(r)
		return err
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if n != 2 {
		t.Fatalf("reports=%d want 2", n)
	}

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run err=%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return")
	}
	if err := s.Submit(reqCtx, RemoveEmitter{Domain: "station", Origin: origin}); !errors.Is(err, ErrStopped) {
		t.Fatalf("submit after stop err=%v", err)
	}
}

func TestStopEndsRun(t *testing.T) {
	tn := tuning.Defaults()
	tn.TickRateHz = 1000
	s := station(t, tn)
	errc := make(chan error, 1)
	go func() { errc <- s.Run(context.Background()) }()
	s.Stop()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run err=%v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return")
	}
}
