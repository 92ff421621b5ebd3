package emitter

import (
	"math"

	"zonecraft.ai/internal/sim/zone/claims"
	"zonecraft.ai/internal/sim/zone/floodfill"
	"zonecraft.ai/internal/sim/zone/reservoir"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// ID identifies an emitter: its domain and the voxel it sits in.
type ID struct {
	Domain voxel.DomainID
	Origin voxel.Pos
}

func (id ID) String() string { return string(id.Domain) + "@" + id.Origin.String() }

type Status int

const (
	// Inactive: manually disabled.
	Inactive Status = iota
	// Standby: not disabled, but a reservoir is below the minimum cycle cost.
	Standby
	Active
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Standby:
		return "STANDBY"
	default:
		return "INACTIVE"
	}
}

// Costs are per-voxel consumption rates for one distribution cycle.
type Costs struct {
	EnergyPerVoxel float64 `yaml:"energy_per_voxel" json:"energy_per_voxel"`
	GasPerVoxel    float64 `yaml:"gas_per_voxel" json:"gas_per_voxel"`
}

// GasCost is max(1, round(n*GasPerVoxel)).
func (c Costs) GasCost(n int) int64 {
	v := int64(math.Round(float64(n) * c.GasPerVoxel))
	if v < 1 {
		v = 1
	}
	return v
}

// EnergyCost is max(1, ceil(n*EnergyPerVoxel)). A small epsilon keeps float
// noise (700*0.07 = 49.00000000000001) from rounding up a whole unit.
func (c Costs) EnergyCost(n int) int64 {
	v := int64(math.Ceil(float64(n)*c.EnergyPerVoxel - 1e-9))
	if v < 1 {
		v = 1
	}
	return v
}

// Kind is the capability an emitter type plugs in: its costs and how its
// effect is applied to and removed from a voxel. Apply and Remove must be
// idempotent.
type Kind[P any] interface {
	Name() string
	Costs() Costs
	Apply(domain voxel.DomainID, pos voxel.Pos, payload P)
	Remove(domain voxel.DomainID, pos voxel.Pos)
}

type Params struct {
	InitialRadius        int
	ExpansionInterval    int
	DistributionInterval int
	MaxVoxels            int
}

func (p *Params) applyDefaults() {
	if p.InitialRadius < 0 {
		p.InitialRadius = 0
	}
	if p.ExpansionInterval <= 0 {
		p.ExpansionInterval = 20
	}
	if p.DistributionInterval <= 0 {
		p.DistributionInterval = 20
	}
	if p.MaxVoxels <= 0 {
		p.MaxVoxels = 4096
	}
}

// Env is the per-domain context injected into every emitter of that domain.
type Env struct {
	Claims   *claims.Table
	Explorer *floodfill.Explorer
}

// Usage is the per-tick consumption reported for the last distribution cycle.
type Usage struct {
	EnergyPerTick float64
	GasPerTick    float64
}

type Emitter[P any] struct {
	id     ID
	kind   Kind[P]
	costs  Costs
	params Params
	env    Env
	phase  int

	energy *reservoir.Tank
	gas    *reservoir.Tank

	payload      P
	payloadDirty bool

	disabled   bool
	active     bool
	status     Status
	radius     int
	lastGrowth uint64
	zone       voxel.Set
	usage      Usage
	last       Cycle
	removed    bool
}

func New[P any](id ID, kind Kind[P], params Params, env Env, energy, gas reservoir.Spec, payload P) *Emitter[P] {
	params.applyDefaults()
	return &Emitter[P]{
		id:      id,
		kind:    kind,
		costs:   kind.Costs(),
		params:  params,
		env:     env,
		phase:   voxel.Phase(id.Origin, params.DistributionInterval),
		energy:  reservoir.NewTank(energy),
		gas:     reservoir.NewTank(gas),
		payload: payload,
		status:  Standby,
		radius:  params.InitialRadius,
		zone:    voxel.Set{},
	}
}

func (e *Emitter[P]) ID() ID                 { return e.id }
func (e *Emitter[P]) Kind() string           { return e.kind.Name() }
func (e *Emitter[P]) Energy() *reservoir.Tank { return e.energy }
func (e *Emitter[P]) Gas() *reservoir.Tank    { return e.gas }
func (e *Emitter[P]) Payload() P             { return e.payload }
func (e *Emitter[P]) Phase() int             { return e.phase }
func (e *Emitter[P]) Removed() bool          { return e.removed }
func (e *Emitter[P]) LastCycle() Cycle       { return e.last }

// SetPayload changes the effect payload. Every owned voxel gets the new
// payload on the next committed cycle.
func (e *Emitter[P]) SetPayload(p P) {
	e.payload = p
	e.payloadDirty = true
}

// SetManualDisable takes effect on the next Step.
func (e *Emitter[P]) SetManualDisable(v bool) { e.disabled = v }

// Zone returns a sorted copy of the owned voxels.
func (e *Emitter[P]) Zone() []voxel.Pos { return e.zone.Sorted() }

type Report struct {
	ID             ID
	Kind           string
	Status         Status
	Active         bool
	ManualDisable  bool
	Radius         int
	ZoneSize       int
	Usage          Usage
	EnergyStored   int64
	EnergyCapacity int64
	GasStored      int64
	GasCapacity    int64
}

func (e *Emitter[P]) Report() Report {
	return Report{
		ID:             e.id,
		Kind:           e.kind.Name(),
		Status:         e.status,
		Active:         e.active,
		ManualDisable:  e.disabled,
		Radius:         e.radius,
		ZoneSize:       len(e.zone),
		Usage:          e.usage,
		EnergyStored:   e.energy.Stored(),
		EnergyCapacity: e.energy.Capacity(),
		GasStored:      e.gas.Stored(),
		GasCapacity:    e.gas.Capacity(),
	}
}
