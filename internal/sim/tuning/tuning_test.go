package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := `
tick_rate_hz: 10
zone:
  max_voxels: 8000
kinds:
  Gravity:
    costs: {energy_per_voxel: 0.5, gas_per_voxel: 0}
    energy: {capacity: 5000, max_receive: 100}
    gas: {capacity: 10}
`
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	tn, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tn.TickRateHz != 10 || tn.Zone.MaxVoxels != 8000 {
		t.Fatalf("overrides not applied: %+v", tn)
	}
	if tn.Zone.DistributionIntervalTicks != 20 || tn.Zone.InitialRadius != 1 {
		t.Fatalf("defaults lost: %+v", tn.Zone)
	}
	g := tn.Kinds["gravity"]
	if g.Costs.EnergyPerVoxel != 0.5 || g.Energy.Capacity != 5000 || g.Gas.Capacity != 10 {
		t.Fatalf("gravity kind not replaced: %+v", g)
	}
	if tn.Kinds["oxygen"].Costs.GasPerVoxel != 0.01 {
		t.Fatalf("oxygen default lost")
	}
	if got := tn.EmitterParams(); got.MaxVoxels != 8000 || got.DistributionInterval != 20 {
		t.Fatalf("params=%+v", got)
	}
}

func TestLoadRejectsBadKind(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := "kinds:\n  oxygen:\n    costs: {energy_per_voxel: -1}\n    energy: {capacity: 1}\n    gas: {capacity: 1}\n"
	if err := os.WriteFile(p, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDefaultsValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestShippedTuningLoads(t *testing.T) {
	tn, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tn.TickRateHz != 20 || len(tn.KindNames()) != 2 {
		t.Fatalf("tuning=%+v", tn)
	}
}
