// Package sim hosts zone emitters across independent domains: it owns the
// terrain, claim tables and effect fields, feeds reservoirs, steps every domain
// once per tick and fans out what happened to sinks.
package sim

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"

	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
	"zonecraft.ai/internal/sim/zone/claims"
	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/kinds"
	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

var (
	ErrUnknownDomain    = errors.New("unknown domain")
	ErrDuplicateEmitter = errors.New("emitter already placed at origin")
	ErrUnknownEmitter   = errors.New("no emitter at origin")
	ErrStopped          = errors.New("simulation stopped")
)

// CycleSink receives one record per distribution cycle, from the loop
// goroutine. Implementations must not block.
type CycleSink interface {
	WriteCycle(rec CycleRecord) error
}

// FrameSink receives one frame per domain at the end of every tick.
type FrameSink interface {
	PublishFrame(f protocol.FrameMsg)
}

// Simulation is single-threaded from the caller's point of view: all methods
// except Do and Submit must be called from the goroutine that runs it (or
// before Run starts). Domains step in parallel inside StepOnce.
type Simulation struct {
	tuning  tuning.Tuning
	kinds   *kinds.Registry
	effects *kinds.Effects

	worlds  *terrain.Worlds
	claims  *claims.Registry
	domains map[voxel.DomainID]*Domain
	order   []voxel.DomainID

	tick atomic.Uint64

	sinks  []CycleSink
	frames FrameSink

	// Optional snapshot sink (may be nil). Sends never block.
	snapshotSink chan<- snapshot.SnapshotV1

	reqs chan request
	stop chan struct{}
	done chan struct{}
}

// New builds an empty simulation for the given tuning: kinds are registered,
// no domains exist yet.
func New(t tuning.Tuning) (*Simulation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	reg, fx, err := kinds.Builtin(t.Costs())
	if err != nil {
		return nil, err
	}
	return &Simulation{
		tuning:  t,
		kinds:   reg,
		effects: fx,
		worlds:  terrain.NewWorlds(),
		claims:  claims.NewRegistry(),
		domains: map[voxel.DomainID]*Domain{},
		reqs:    make(chan request, 256),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// FromLayout builds a simulation whose domains, terrain and initial emitters
// come from a layout.
func FromLayout(t tuning.Tuning, l layout.Config) (*Simulation, error) {
	s, err := New(t)
	if err != nil {
		return nil, err
	}
	for _, ds := range l.Domains {
		if _, err := s.AddDomain(ds, ds.Build()); err != nil {
			return nil, err
		}
	}
	for _, ds := range l.Domains {
		for _, es := range ds.Emitters {
			payload, err := es.PayloadJSON()
			if err != nil {
				return nil, err
			}
			_, err = s.Place(PlaceEmitter{
				Domain:   voxel.DomainID(ds.ID),
				Kind:     es.Kind,
				Origin:   voxel.FromArray(es.Origin),
				Payload:  payload,
				Disabled: es.Disabled,
				Supply:   Supply{Energy: es.Supply.Energy, Gas: es.Supply.Gas},
				Initial:  Supply{Energy: es.Initial.Energy, Gas: es.Initial.Gas},
			})
			if err != nil {
				return nil, fmt.Errorf("domain %s: %w", ds.ID, err)
			}
		}
	}
	return s, nil
}

// AddDomain registers a domain backed by store.
func (s *Simulation) AddDomain(spec layout.DomainSpec, store *terrain.Store) (*Domain, error) {
	id := voxel.DomainID(spec.ID)
	if id == "" {
		return nil, fmt.Errorf("add domain: empty id")
	}
	if _, ok := s.domains[id]; ok {
		return nil, fmt.Errorf("add domain %s: already exists", id)
	}
	s.worlds.Put(id, store)
	d := newDomain(spec, store, s.claims, s.worlds)
	s.domains[id] = d
	s.order = append(s.order, id)
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	return d, nil
}

func (s *Simulation) Domain(id voxel.DomainID) (*Domain, error) {
	d := s.domains[id]
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, id)
	}
	return d, nil
}

// Domains returns domain ids in stepping order.
func (s *Simulation) Domains() []voxel.DomainID {
	return append([]voxel.DomainID(nil), s.order...)
}

func (s *Simulation) Tuning() tuning.Tuning   { return s.tuning }
func (s *Simulation) Effects() *kinds.Effects { return s.effects }
func (s *Simulation) Kinds() *kinds.Registry  { return s.kinds }
func (s *Simulation) CurrentTick() uint64     { return s.tick.Load() }

func (s *Simulation) AddCycleSink(k CycleSink) { s.sinks = append(s.sinks, k) }
func (s *Simulation) SetFrameSink(f FrameSink) { s.frames = f }

func (s *Simulation) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { s.snapshotSink = ch }

// Place creates an emitter of the given kind. An open origin voxel becomes an
// emitter block. Reservoirs start at the Initial levels.
func (s *Simulation) Place(c PlaceEmitter) (emitter.Ticker, error) {
	d, err := s.Domain(c.Domain)
	if err != nil {
		return nil, err
	}
	if d.byOrigin[c.Origin] != nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrDuplicateEmitter, c.Domain, c.Origin)
	}
	t, err := s.build(d, c.Kind, c.Origin, c.Payload)
	if err != nil {
		return nil, err
	}
	if d.store.GetBlock(c.Origin) == terrain.Air {
		d.store.SetBlock(c.Origin, terrain.Emitter)
	}
	t.Energy().SetStored(c.Initial.Energy)
	t.Gas().SetStored(c.Initial.Gas)
	t.SetManualDisable(c.Disabled)
	d.add(t, c.Supply)
	return t, nil
}

func (s *Simulation) build(d *Domain, kind string, origin voxel.Pos, payload []byte) (emitter.Ticker, error) {
	f, err := s.kinds.Resolve(kind)
	if err != nil {
		return nil, err
	}
	kt, ok := s.tuning.Kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no tuning entry", kinds.ErrUnknownKind, kind)
	}
	return f(emitter.ID{Domain: d.id, Origin: origin}, d.env(kind), kinds.Spec{
		Params:  s.tuning.EmitterParams(),
		Energy:  kt.Energy,
		Gas:     kt.Gas,
		Payload: payload,
	})
}

// RemoveEmitter tears an emitter down, releasing its zone and effect.
func (s *Simulation) RemoveEmitter(domain voxel.DomainID, origin voxel.Pos) error {
	d, err := s.Domain(domain)
	if err != nil {
		return err
	}
	if !d.remove(origin) {
		return fmt.Errorf("%w: %s@%s", ErrUnknownEmitter, domain, origin)
	}
	if d.store.GetBlock(origin) == terrain.Emitter {
		d.store.SetBlock(origin, terrain.Air)
	}
	return nil
}

func (s *Simulation) Emitter(domain voxel.DomainID, origin voxel.Pos) (emitter.Ticker, error) {
	d, err := s.Domain(domain)
	if err != nil {
		return nil, err
	}
	t := d.Emitter(origin)
	if t == nil {
		return nil, fmt.Errorf("%w: %s@%s", ErrUnknownEmitter, domain, origin)
	}
	return t, nil
}

// Reports returns the status of every emitter of a domain in placement order.
func (s *Simulation) Reports(domain voxel.DomainID) ([]emitter.Report, error) {
	d, err := s.Domain(domain)
	if err != nil {
		return nil, err
	}
	out := make([]emitter.Report, 0, len(d.emitters))
	for _, p := range d.emitters {
		out = append(out, p.t.Report())
	}
	return out, nil
}
