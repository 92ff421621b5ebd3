package sim

import (
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/zone/claims"
	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/floodfill"
	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// Supply is what the host feeds an emitter's reservoirs every tick, before the
// emitter steps. Tank receive limits still apply.
type Supply struct {
	Energy int64 `json:"energy"`
	Gas    int64 `json:"gas"`
}

type placed struct {
	t      emitter.Ticker
	supply Supply
}

// Domain is one independent voxel space. Its emitters step sequentially in
// placement order, which is what decides contested voxels; different domains
// never share state and step concurrently.
type Domain struct {
	id             voxel.DomainID
	naturalGravity float64

	store    *terrain.Store
	claims   *claims.Registry
	explorer *floodfill.Explorer

	emitters []*placed
	byOrigin map[voxel.Pos]*placed
}

func newDomain(spec layout.DomainSpec, store *terrain.Store, reg *claims.Registry, view voxel.WorldView) *Domain {
	return &Domain{
		id:             voxel.DomainID(spec.ID),
		naturalGravity: spec.NaturalGravity,
		store:          store,
		claims:         reg,
		explorer:       floodfill.New(view),
		byOrigin:       map[voxel.Pos]*placed{},
	}
}

func (d *Domain) ID() voxel.DomainID      { return d.id }
func (d *Domain) NaturalGravity() float64 { return d.naturalGravity }
func (d *Domain) Store() *terrain.Store   { return d.store }

// Claims is the claim table of kind in this domain. Each kind contests its own
// table, so one voxel can carry every kind's effect at once.
func (d *Domain) Claims(kind string) *claims.Table { return d.claims.Table(d.id, kind) }

// Claimed counts claimed voxels across every kind.
func (d *Domain) Claimed() int {
	n := 0
	for _, t := range d.claims.Tables(d.id) {
		n += t.Len()
	}
	return n
}

func (d *Domain) env(kind string) emitter.Env {
	return emitter.Env{Claims: d.Claims(kind), Explorer: d.explorer}
}

func (d *Domain) Emitter(origin voxel.Pos) emitter.Ticker {
	if p := d.byOrigin[origin]; p != nil {
		return p.t
	}
	return nil
}

// Emitters lists live emitters in placement order.
func (d *Domain) Emitters() []emitter.Ticker {
	out := make([]emitter.Ticker, 0, len(d.emitters))
	for _, p := range d.emitters {
		out = append(out, p.t)
	}
	return out
}

func (d *Domain) add(t emitter.Ticker, s Supply) {
	p := &placed{t: t, supply: s}
	d.emitters = append(d.emitters, p)
	d.byOrigin[t.ID().Origin] = p
}

func (d *Domain) remove(origin voxel.Pos) bool {
	p := d.byOrigin[origin]
	if p == nil {
		return false
	}
	p.t.Remove()
	delete(d.byOrigin, origin)
	for i, q := range d.emitters {
		if q == p {
			d.emitters = append(d.emitters[:i], d.emitters[i+1:]...)
			break
		}
	}
	return true
}

// step feeds and steps every emitter once, returning the cycles that ran.
func (d *Domain) step(tick uint64) []emitter.Cycle {
	var out []emitter.Cycle
	for _, p := range d.emitters {
		e, g := p.t.Energy(), p.t.Gas()
		e.ResetTick()
		g.ResetTick()
		e.Receive(p.supply.Energy)
		g.Receive(p.supply.Gas)
		if c, ran := p.t.Step(tick); ran {
			out = append(out, c)
		}
	}
	return out
}
