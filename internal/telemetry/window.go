package telemetry

import (
	"sort"

	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/zone/emitter"
)

// WindowStats is one CSV row: what every emitter of one kind in one domain
// did during a telemetry window.
type WindowStats struct {
	WindowStart uint64 `csv:"window_start"`
	WindowEnd   uint64 `csv:"window_end"`
	Domain      string `csv:"domain"`
	Kind        string `csv:"kind"`

	Emitters   int `csv:"emitters"`
	Cycles     int `csv:"cycles"`
	Committed  int `csv:"committed"`
	RolledBack int `csv:"rolled_back"`
	Empty      int `csv:"empty"`
	Trimmed    int `csv:"trimmed_voxels"`

	ZoneMean float64 `csv:"zone_mean"`
	ZoneStd  float64 `csv:"zone_std"`
	ZoneP10  float64 `csv:"zone_p10"`
	ZoneP50  float64 `csv:"zone_p50"`
	ZoneP90  float64 `csv:"zone_p90"`

	EnergyUsed int64   `csv:"energy_used"`
	GasUsed    int64   `csv:"gas_used"`
	EnergyMean float64 `csv:"energy_per_tick_mean"`
	EnergyP90  float64 `csv:"energy_per_tick_p90"`
	GasMean    float64 `csv:"gas_per_tick_mean"`
	GasP90     float64 `csv:"gas_per_tick_p90"`
}

type groupKey struct {
	domain string
	kind   string
}

type group struct {
	origins  map[[3]int]struct{}
	zones    []float64
	energy   []float64
	gas      []float64
	outcomes map[string]int
	trimmed  int
	eUsed    int64
	gUsed    int64
}

// window accumulates cycle records for [start, start+size).
type window struct {
	start, size uint64
	groups      map[groupKey]*group
}

func newWindow(start, size uint64) *window {
	return &window{start: start, size: size, groups: map[groupKey]*group{}}
}

func (w *window) add(rec sim.CycleRecord) {
	k := groupKey{rec.Domain, rec.Kind}
	g := w.groups[k]
	if g == nil {
		g = &group{origins: map[[3]int]struct{}{}, outcomes: map[string]int{}}
		w.groups[k] = g
	}
	g.origins[rec.Origin] = struct{}{}
	g.outcomes[rec.Outcome]++
	g.trimmed += rec.Trimmed
	g.eUsed += rec.EnergyUsed
	g.gUsed += rec.GasUsed
	g.zones = append(g.zones, float64(rec.ZoneSize))
	g.energy = append(g.energy, rec.EnergyPerTick)
	g.gas = append(g.gas, rec.GasPerTick)
}

// rows returns one row per (domain, kind), sorted.
func (w *window) rows() []WindowStats {
	keys := make([]groupKey, 0, len(w.groups))
	for k := range w.groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].domain != keys[j].domain {
			return keys[i].domain < keys[j].domain
		}
		return keys[i].kind < keys[j].kind
	})

	out := make([]WindowStats, 0, len(keys))
	for _, k := range keys {
		g := w.groups[k]
		zs := Summarize(g.zones)
		es := Summarize(g.energy)
		gs := Summarize(g.gas)
		out = append(out, WindowStats{
			WindowStart: w.start,
			WindowEnd:   w.start + w.size,
			Domain:      k.domain,
			Kind:        k.kind,
			Emitters:    len(g.origins),
			Cycles:      len(g.zones),
			Committed:   g.outcomes[string(emitter.OutcomeCommitted)],
			RolledBack:  g.outcomes[string(emitter.OutcomeRolledBack)],
			Empty:       g.outcomes[string(emitter.OutcomeEmpty)],
			Trimmed:     g.trimmed,
			ZoneMean:    zs.Mean,
			ZoneStd:     zs.Std,
			ZoneP10:     zs.P10,
			ZoneP50:     zs.P50,
			ZoneP90:     zs.P90,
			EnergyUsed:  g.eUsed,
			GasUsed:     g.gUsed,
			EnergyMean:  es.Mean,
			EnergyP90:   es.P90,
			GasMean:     gs.Mean,
			GasP90:      gs.P90,
		})
	}
	return out
}
