package emitter

import (
	"zonecraft.ai/internal/sim/zone/trim"
	"zonecraft.ai/internal/sim/zone/voxel"
)

type Outcome string

const (
	OutcomeCommitted  Outcome = "COMMITTED"
	OutcomeRolledBack Outcome = "ROLLED_BACK"
	OutcomeEmpty      Outcome = "EMPTY"
)

// Cycle records one distribution cycle.
type Cycle struct {
	Tick       uint64
	ID         ID
	Kind       string
	Radius     int
	Candidates int
	Granted    int
	Trimmed    int
	Added      int
	Removed    int
	ZoneSize   int
	EnergyCost int64
	GasCost    int64
	EnergyUsed int64
	GasUsed    int64
	Usage      Usage
	Outcome    Outcome
}

// distribute runs explore -> claim -> (trim) -> commit or roll back.
func (e *Emitter[P]) distribute(tick uint64) Cycle {
	c := Cycle{Tick: tick, ID: e.id, Kind: e.kind.Name(), Radius: e.radius}
	owner := e.id.Origin

	candidates := e.env.Explorer.Explore(e.id.Domain, e.id.Origin, e.radius, e.params.MaxVoxels)
	c.Candidates = len(candidates)

	granted := e.env.Claims.Claim(owner, candidates)
	c.Granted = len(granted)
	if len(granted) == 0 {
		// Nothing reachable or everything contested: whatever was owned before
		// is no longer part of the region.
		c.Added, c.Removed = e.commit(nil)
		e.usage = Usage{}
		c.Outcome = OutcomeEmpty
		return c
	}

	energyCost := e.costs.EnergyCost(len(granted))
	gasCost := e.costs.GasCost(len(granted))

	if target, ok := trim.TargetSize(len(granted), e.gas.Stored(), e.gas.Capacity()); ok {
		keep, drop := trim.Trim(e.id.Origin, granted, target)
		e.env.Claims.Release(owner, drop)
		granted = keep
		c.Trimmed = len(drop)
		energyCost = e.costs.EnergyCost(len(granted))
		gasCost = e.costs.GasCost(len(granted))
	}
	c.EnergyCost = energyCost
	c.GasCost = gasCost

	if e.energy.Stored() < energyCost || e.gas.Stored() < gasCost {
		c.Removed = e.rollback(granted)
		e.usage = Usage{}
		c.Outcome = OutcomeRolledBack
		return c
	}

	c.Added, c.Removed = e.commit(granted)
	c.EnergyUsed = e.energy.Extract(energyCost)
	c.GasUsed = e.gas.Extract(gasCost)
	interval := float64(e.params.DistributionInterval)
	e.usage = Usage{
		EnergyPerTick: float64(c.EnergyUsed) / interval,
		GasPerTick:    float64(c.GasUsed) / interval,
	}
	c.Usage = e.usage
	c.ZoneSize = len(e.zone)
	c.Outcome = OutcomeCommitted
	return c
}

// commit makes granted the owned zone. Both diffs are computed from the
// current zone before anything is mutated, then applied.
func (e *Emitter[P]) commit(granted []voxel.Pos) (added, removed int) {
	next := voxel.NewSet(granted)

	toAdd := make([]voxel.Pos, 0, len(granted))
	for _, p := range granted {
		if e.payloadDirty || !e.zone.Has(p) {
			toAdd = append(toAdd, p)
		}
	}
	toRemove := make([]voxel.Pos, 0)
	for _, p := range e.zone.Sorted() {
		if !next.Has(p) {
			toRemove = append(toRemove, p)
		}
	}

	e.env.Claims.Release(e.id.Origin, toRemove)
	for _, p := range toRemove {
		e.kind.Remove(e.id.Domain, p)
	}
	for _, p := range toAdd {
		e.kind.Apply(e.id.Domain, p, e.payload)
	}
	e.zone = next
	if len(granted) > 0 {
		e.payloadDirty = false
	}
	return len(toAdd), len(toRemove)
}

// rollback gives back everything this cycle granted together with the
// previous zone, and removes the effect from the previous zone.
func (e *Emitter[P]) rollback(granted []voxel.Pos) (removed int) {
	prev := e.zone.Sorted()
	e.zone = voxel.Set{}

	release := make([]voxel.Pos, 0, len(granted)+len(prev))
	release = append(release, granted...)
	release = append(release, prev...)
	e.env.Claims.Release(e.id.Origin, release)
	for _, p := range prev {
		e.kind.Remove(e.id.Domain, p)
	}
	return len(prev)
}
