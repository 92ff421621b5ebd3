package tuning

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/reservoir"
)

type Tuning struct {
	TickRateHz           int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks   int `yaml:"snapshot_every_ticks"`
	TelemetryWindowTicks int `yaml:"telemetry_window_ticks"`

	Zone  ZoneTuning            `yaml:"zone"`
	Kinds map[string]KindTuning `yaml:"kinds"`
}

type ZoneTuning struct {
	InitialRadius             int `yaml:"initial_radius"`
	ExpansionIntervalTicks    int `yaml:"expansion_interval_ticks"`
	DistributionIntervalTicks int `yaml:"distribution_interval_ticks"`
	MaxVoxels                 int `yaml:"max_voxels"`
}

type KindTuning struct {
	Costs  emitter.Costs  `yaml:"costs"`
	Energy reservoir.Spec `yaml:"energy"`
	Gas    reservoir.Spec `yaml:"gas"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:           20,
		SnapshotEveryTicks:   6000,
		TelemetryWindowTicks: 200,
		Zone: ZoneTuning{
			InitialRadius:             1,
			ExpansionIntervalTicks:    20,
			DistributionIntervalTicks: 20,
			MaxVoxels:                 4096,
		},
		Kinds: map[string]KindTuning{
			"oxygen": {
				Costs:  emitter.Costs{EnergyPerVoxel: 0.05, GasPerVoxel: 0.01},
				Energy: reservoir.Spec{Capacity: 100_000, MaxReceive: 1_000},
				Gas:    reservoir.Spec{Capacity: 2_000, MaxReceive: 100},
			},
			"gravity": {
				Costs:  emitter.Costs{EnergyPerVoxel: 0.2, GasPerVoxel: 0.005},
				Energy: reservoir.Spec{Capacity: 200_000, MaxReceive: 2_000},
				Gas:    reservoir.Spec{Capacity: 1_000, MaxReceive: 50},
			},
		},
	}
}

// Load reads tuning.yaml on top of Defaults. Kinds named in the file replace the
// default entry for that kind as a whole.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	var file Tuning
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.merge(file)
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) merge(o Tuning) {
	if o.TickRateHz > 0 {
		t.TickRateHz = o.TickRateHz
	}
	if o.SnapshotEveryTicks != 0 {
		t.SnapshotEveryTicks = o.SnapshotEveryTicks
	}
	if o.TelemetryWindowTicks > 0 {
		t.TelemetryWindowTicks = o.TelemetryWindowTicks
	}
	if o.Zone.InitialRadius > 0 {
		t.Zone.InitialRadius = o.Zone.InitialRadius
	}
	if o.Zone.ExpansionIntervalTicks > 0 {
		t.Zone.ExpansionIntervalTicks = o.Zone.ExpansionIntervalTicks
	}
	if o.Zone.DistributionIntervalTicks > 0 {
		t.Zone.DistributionIntervalTicks = o.Zone.DistributionIntervalTicks
	}
	if o.Zone.MaxVoxels > 0 {
		t.Zone.MaxVoxels = o.Zone.MaxVoxels
	}
	for name, k := range o.Kinds {
		t.Kinds[strings.ToLower(strings.TrimSpace(name))] = k
	}
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be > 0")
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must be >= 0")
	}
	if t.Zone.DistributionIntervalTicks <= 0 || t.Zone.ExpansionIntervalTicks <= 0 {
		return fmt.Errorf("zone intervals must be > 0")
	}
	if t.Zone.MaxVoxels <= 0 {
		return fmt.Errorf("zone.max_voxels must be > 0")
	}
	for _, name := range t.KindNames() {
		k := t.Kinds[name]
		if k.Costs.EnergyPerVoxel < 0 || k.Costs.GasPerVoxel < 0 {
			return fmt.Errorf("kind %s: costs must be >= 0", name)
		}
		if k.Energy.Capacity <= 0 || k.Gas.Capacity <= 0 {
			return fmt.Errorf("kind %s: reservoir capacities must be > 0", name)
		}
	}
	return nil
}

func (t Tuning) KindNames() []string {
	out := make([]string, 0, len(t.Kinds))
	for n := range t.Kinds {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Costs returns the per-voxel costs of every configured kind.
func (t Tuning) Costs() map[string]emitter.Costs {
	out := make(map[string]emitter.Costs, len(t.Kinds))
	for n, k := range t.Kinds {
		out[n] = k.Costs
	}
	return out
}

func (t Tuning) EmitterParams() emitter.Params {
	return emitter.Params{
		InitialRadius:        t.Zone.InitialRadius,
		ExpansionInterval:    t.Zone.ExpansionIntervalTicks,
		DistributionInterval: t.Zone.DistributionIntervalTicks,
		MaxVoxels:            t.Zone.MaxVoxels,
	}
}
