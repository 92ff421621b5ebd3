package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/tuning"
)

func TestSQLiteIndex_CyclesAndSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.UpsertTuning(tuning.Defaults()); err != nil {
		t.Fatalf("UpsertTuning: %v", err)
	}

	for tick := uint64(0); tick < 100; tick += 20 {
		_ = idx.WriteCycle(sim.CycleRecord{
			Tick: tick, Domain: "station", Origin: [3]int{0, 1, 0}, Kind: "oxygen",
			Radius: 1, Granted: 6, ZoneSize: 6, EnergyUsed: 1, GasUsed: 1,
			EnergyPerTick: 0.05, GasPerTick: 0.05, Outcome: "COMMITTED",
		})
		_ = idx.WriteCycle(sim.CycleRecord{
			Tick: tick, Domain: "station", Origin: [3]int{3, 1, 0}, Kind: "gravity", Outcome: "EMPTY",
		})
	}
	idx.RecordSnapshot("/data/snapshots/000000000100.snap.zst", snapshot.SnapshotV1{
		Header:  snapshot.Header{Version: snapshot.Version, Tick: 100, Digest: "abc"},
		Domains: []snapshot.DomainV1{{ID: "station"}},
		Emitters: []snapshot.EmitterV1{
			{Domain: "station", Kind: "oxygen", Origin: [3]int{0, 1, 0}, Active: true, Radius: 1, EnergyStored: 99, GasStored: 9, Zone: [][3]int{{1, 1, 0}, {-1, 1, 0}}},
			{Domain: "station", Kind: "gravity", Origin: [3]int{3, 1, 0}, ManualDisable: true},
		},
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM cycles`).Scan(&n); err != nil || n != 10 {
		t.Fatalf("cycles=%d err=%v", n, err)
	}
	var (
		digest          string
		emitters, zones int
	)
	if err := db.QueryRow(`SELECT digest,emitters,zone_voxels FROM snapshots WHERE tick=100`).Scan(&digest, &emitters, &zones); err != nil {
		t.Fatalf("snapshot row: %v", err)
	}
	if digest != "abc" || emitters != 2 || zones != 2 {
		t.Fatalf("snapshot row: digest=%q emitters=%d zones=%d", digest, emitters, zones)
	}
	var active, disabled int
	if err := db.QueryRow(`SELECT active,disabled FROM snapshot_emitters WHERE tick=100 AND x=3`).Scan(&active, &disabled); err != nil {
		t.Fatalf("state row: %v", err)
	}
	if active != 0 || disabled != 1 {
		t.Fatalf("state row: active=%d disabled=%d", active, disabled)
	}
	var tuningJSON string
	if err := db.QueryRow(`SELECT json FROM configs WHERE name='tuning'`).Scan(&tuningJSON); err != nil || tuningJSON == "" {
		t.Fatalf("tuning row: %q err=%v", tuningJSON, err)
	}
}

func TestSQLiteIndex_CyclesQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for tick := uint64(1); tick <= 5; tick++ {
		_ = idx.WriteCycle(sim.CycleRecord{Tick: tick, Domain: "a", Origin: [3]int{1, 2, 3}, Kind: "oxygen", EnergyPerTick: 0.5, Outcome: "COMMITTED"})
		_ = idx.WriteCycle(sim.CycleRecord{Tick: tick, Domain: "b", Origin: [3]int{1, 2, 3}, Kind: "oxygen", Outcome: "ROLLED_BACK"})
	}
	_ = idx.Close()

	// Reopen: the writer has drained, so every row is visible.
	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	got, err := idx.Cycles(ctx, CycleQuery{Domain: "a", Origin: &[3]int{1, 2, 3}, Since: 2, Limit: 3})
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(got) != 3 || got[0].Tick != 5 || got[2].Tick != 3 {
		t.Fatalf("got %+v", got)
	}
	if got[0].EnergyPerTick != 0.5 || got[0].Origin != [3]int{1, 2, 3} {
		t.Fatalf("row=%+v", got[0])
	}

	rb, err := idx.Cycles(ctx, CycleQuery{Outcome: "ROLLED_BACK"})
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(rb) != 5 || rb[0].Domain != "b" {
		t.Fatalf("rolled back rows=%d", len(rb))
	}
}
