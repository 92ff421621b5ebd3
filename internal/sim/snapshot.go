package sim

import (
	"fmt"

	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// ExportSnapshot captures the simulation between ticks. Header.Tick is the
// next tick to run.
func (s *Simulation) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			Tick:    s.tick.Load(),
			Digest:  s.StateDigest(),
		},
		TickRate: s.tuning.TickRateHz,
	}
	for _, id := range s.order {
		d := s.domains[id]
		dv := snapshot.DomainV1{
			ID:             string(d.id),
			MinY:           d.store.MinY,
			MaxY:           d.store.MaxY,
			NaturalGravity: d.naturalGravity,
		}
		for _, k := range d.store.LoadedSectionKeys() {
			sec := d.store.Sections[k]
			blocks := make([]uint16, len(sec.Blocks))
			copy(blocks, sec.Blocks)
			dv.Sections = append(dv.Sections, snapshot.SectionV1{CX: k.CX, CY: k.CY, CZ: k.CZ, Blocks: blocks})
		}
		snap.Domains = append(snap.Domains, dv)

		for _, p := range d.emitters {
			st, err := p.t.ExportState()
			if err != nil {
				// Payload types are JSON-safe by construction; keep the rest.
				st.Payload = nil
			}
			snap.Emitters = append(snap.Emitters, snapshot.EmitterV1{
				Domain:         string(d.id),
				Kind:           p.t.Kind(),
				Origin:         p.t.ID().Origin.Array(),
				SupplyEnergy:   p.supply.Energy,
				SupplyGas:      p.supply.Gas,
				ManualDisable:  st.ManualDisable,
				Active:         st.Active,
				Radius:         st.Radius,
				LastGrowthTick: st.LastGrowthTick,
				Payload:        st.Payload,
				EnergyStored:   st.EnergyStored,
				GasStored:      st.GasStored,
				Zone:           posArrays(st.Zone),
			})
		}
	}
	return snap
}

// FromSnapshot rebuilds a simulation. Emitters are restored in placement order
// with their lifecycle state, reservoir levels and zones, so the state digest
// matches the one recorded in the header.
func FromSnapshot(t tuning.Tuning, snap snapshot.SnapshotV1) (*Simulation, error) {
	if snap.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("%w: %d", snapshot.ErrVersion, snap.Header.Version)
	}
	s, err := New(t)
	if err != nil {
		return nil, err
	}
	for _, dv := range snap.Domains {
		store := terrain.NewStore(dv.MinY, dv.MaxY)
		for _, sv := range dv.Sections {
			if err := store.LoadSection(terrain.SectionKey{CX: sv.CX, CY: sv.CY, CZ: sv.CZ}, sv.Blocks); err != nil {
				return nil, fmt.Errorf("domain %s: %w", dv.ID, err)
			}
		}
		spec := layout.DomainSpec{ID: dv.ID, MinY: dv.MinY, MaxY: dv.MaxY, NaturalGravity: dv.NaturalGravity}
		if _, err := s.AddDomain(spec, store); err != nil {
			return nil, err
		}
	}
	for _, ev := range snap.Emitters {
		d, err := s.Domain(voxel.DomainID(ev.Domain))
		if err != nil {
			return nil, err
		}
		origin := voxel.FromArray(ev.Origin)
		if d.byOrigin[origin] != nil {
			return nil, fmt.Errorf("%w: %s@%s", ErrDuplicateEmitter, ev.Domain, origin)
		}
		tk, err := s.build(d, ev.Kind, origin, nil)
		if err != nil {
			return nil, err
		}
		if err := tk.ImportState(emitter.State{
			ManualDisable:  ev.ManualDisable,
			Active:         ev.Active,
			Radius:         ev.Radius,
			LastGrowthTick: ev.LastGrowthTick,
			Payload:        ev.Payload,
			EnergyStored:   ev.EnergyStored,
			GasStored:      ev.GasStored,
			Zone:           posList(ev.Zone),
		}); err != nil {
			return nil, err
		}
		d.add(tk, Supply{Energy: ev.SupplyEnergy, Gas: ev.SupplyGas})
	}
	s.tick.Store(snap.Header.Tick)
	return s, nil
}

func posArrays(ps []voxel.Pos) [][3]int {
	if len(ps) == 0 {
		return nil
	}
	out := make([][3]int, len(ps))
	for i, p := range ps {
		out[i] = p.Array()
	}
	return out
}

func posList(as [][3]int) []voxel.Pos {
	out := make([]voxel.Pos, len(as))
	for i, a := range as {
		out[i] = voxel.FromArray(a)
	}
	return out
}
