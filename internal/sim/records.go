package sim

import (
	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim/zone/emitter"
)

// CycleRecord is the flat, serializable form of one distribution cycle.
type CycleRecord struct {
	Tick       uint64 `json:"tick"`
	Domain     string `json:"domain"`
	Origin     [3]int `json:"origin"`
	Kind       string `json:"kind"`
	Radius     int    `json:"radius"`
	Candidates int    `json:"candidates"`
	Granted    int    `json:"granted"`
	Trimmed    int    `json:"trimmed"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	ZoneSize   int    `json:"zone_size"`

	EnergyCost    int64   `json:"energy_cost"`
	GasCost       int64   `json:"gas_cost"`
	EnergyUsed    int64   `json:"energy_used"`
	GasUsed       int64   `json:"gas_used"`
	EnergyPerTick float64 `json:"energy_per_tick"`
	GasPerTick    float64 `json:"gas_per_tick"`

	Outcome string `json:"outcome"`
}

func RecordOf(c emitter.Cycle) CycleRecord {
	return CycleRecord{
		Tick:          c.Tick,
		Domain:        string(c.ID.Domain),
		Origin:        c.ID.Origin.Array(),
		Kind:          c.Kind,
		Radius:        c.Radius,
		Candidates:    c.Candidates,
		Granted:       c.Granted,
		Trimmed:       c.Trimmed,
		Added:         c.Added,
		Removed:       c.Removed,
		ZoneSize:      c.ZoneSize,
		EnergyCost:    c.EnergyCost,
		GasCost:       c.GasCost,
		EnergyUsed:    c.EnergyUsed,
		GasUsed:       c.GasUsed,
		EnergyPerTick: c.Usage.EnergyPerTick,
		GasPerTick:    c.Usage.GasPerTick,
		Outcome:       string(c.Outcome),
	}
}

func statusOf(r emitter.Report) protocol.EmitterStatus {
	return protocol.EmitterStatus{
		Origin:         r.ID.Origin.Array(),
		Kind:           r.Kind,
		Status:         r.Status.String(),
		Radius:         r.Radius,
		ZoneSize:       r.ZoneSize,
		EnergyStored:   r.EnergyStored,
		EnergyCapacity: r.EnergyCapacity,
		GasStored:      r.GasStored,
		GasCapacity:    r.GasCapacity,
		EnergyPerTick:  r.Usage.EnergyPerTick,
		GasPerTick:     r.Usage.GasPerTick,
	}
}

// frame describes a domain after a tick. Emitters whose cycle ran this tick
// carry their outcome and full zone.
func (d *Domain) frame(tick uint64, ran []emitter.Cycle) protocol.FrameMsg {
	cycled := make(map[emitter.ID]emitter.Outcome, len(ran))
	for _, c := range ran {
		cycled[c.ID] = c.Outcome
	}
	f := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Domain:          string(d.id),
		Emitters:        make([]protocol.EmitterStatus, 0, len(d.emitters)),
		Claimed:         d.Claimed(),
	}
	for _, p := range d.emitters {
		st := statusOf(p.t.Report())
		if out, ok := cycled[p.t.ID()]; ok {
			st.Outcome = string(out)
			zone := p.t.Zone()
			st.Zone = make([][3]int, 0, len(zone))
			for _, v := range zone {
				st.Zone = append(st.Zone, v.Array())
			}
		}
		f.Emitters = append(f.Emitters, st)
	}
	return f
}

// Bootstrap describes the domains for a newly connecting observer.
func (s *Simulation) Bootstrap() protocol.BootstrapResponse {
	resp := protocol.BootstrapResponse{
		ProtocolVersion: protocol.Version,
		Tick:            s.tick.Load(),
		TickRateHz:      s.tuning.TickRateHz,
	}
	for _, id := range s.order {
		d := s.domains[id]
		resp.Domains = append(resp.Domains, protocol.DomainInfo{
			ID:             string(d.id),
			MinY:           d.store.MinY,
			MaxY:           d.store.MaxY,
			NaturalGravity: d.naturalGravity,
			Emitters:       len(d.emitters),
		})
	}
	return resp
}

// Status returns one frame per domain describing the state between ticks.
// Zones are included when withZones is set.
func (s *Simulation) Status(withZones bool) []protocol.FrameMsg {
	tick := s.tick.Load()
	out := make([]protocol.FrameMsg, 0, len(s.order))
	for _, id := range s.order {
		d := s.domains[id]
		f := d.frame(tick, nil)
		if withZones {
			for i, p := range d.emitters {
				for _, v := range p.t.Zone() {
					f.Emitters[i].Zone = append(f.Emitters[i].Zone, v.Array())
				}
			}
		}
		out = append(out, f)
	}
	return out
}
