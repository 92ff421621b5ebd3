package emitter

import "zonecraft.ai/internal/sim/zone/voxel"

// minCosts is what both reservoirs must hold for the emitter to run, based on
// the zone it currently owns.
func (e *Emitter[P]) minCosts() (energy, gas int64) {
	n := len(e.zone)
	return e.costs.EnergyCost(n), e.costs.GasCost(n)
}

func (e *Emitter[P]) canRun() bool {
	if e.disabled {
		return false
	}
	energy, gas := e.minCosts()
	return e.energy.Stored() >= energy && e.gas.Stored() >= gas
}

// Step advances the emitter by one simulation tick. It never blocks; a
// distribution cycle, when due, runs to completion inside the call. The
// returned bool reports whether a cycle ran this tick.
func (e *Emitter[P]) Step(tick uint64) (Cycle, bool) {
	if e.removed {
		return Cycle{}, false
	}

	run := e.canRun()
	switch {
	case e.active && !run:
		e.deactivate()
	case !e.active && run:
		e.activate(tick)
	}
	if !e.active {
		if e.disabled {
			e.status = Inactive
		} else {
			e.status = Standby
		}
		return Cycle{}, false
	}
	e.status = Active

	if tick < e.lastGrowth {
		e.lastGrowth = tick
	}
	if tick-e.lastGrowth >= uint64(e.params.ExpansionInterval) {
		e.radius++
		e.lastGrowth = tick
	}

	if (tick+uint64(e.phase))%uint64(e.params.DistributionInterval) != 0 {
		return Cycle{}, false
	}
	e.last = e.distribute(tick)
	return e.last, true
}

func (e *Emitter[P]) activate(tick uint64) {
	e.active = true
	e.radius = e.params.InitialRadius
	e.lastGrowth = tick
}

// deactivate drops the whole zone and its effect.
func (e *Emitter[P]) deactivate() {
	e.active = false
	e.releaseZone()
	e.usage = Usage{}
}

// Remove tears the emitter down: its zone is released and the effect removed
// from every owned voxel. Calling it again is a no-op.
func (e *Emitter[P]) Remove() {
	if e.removed {
		return
	}
	e.removed = true
	e.active = false
	e.status = Inactive
	e.releaseZone()
	e.usage = Usage{}
}

func (e *Emitter[P]) releaseZone() {
	owned := e.zone.Sorted()
	e.zone = voxel.Set{}
	if e.env.Claims != nil {
		e.env.Claims.ReleaseAll(e.id.Origin)
	}
	for _, p := range owned {
		e.kind.Remove(e.id.Domain, p)
	}
}
