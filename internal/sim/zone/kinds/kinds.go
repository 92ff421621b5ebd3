package kinds

import (
	"zonecraft.ai/internal/sim/zone/effects"
	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/voxel"
)

const (
	OxygenName  = "oxygen"
	GravityName = "gravity"
)

// Air is the oxygen payload. Oxygen zones carry no tunable value.
type Air struct{}

// Oxygen makes voxels breathable.
type Oxygen struct {
	Field *effects.Field[Air]
	costs emitter.Costs
}

func NewOxygen(field *effects.Field[Air], costs emitter.Costs) *Oxygen {
	return &Oxygen{Field: field, costs: costs}
}

func (o *Oxygen) Name() string          { return OxygenName }
func (o *Oxygen) Costs() emitter.Costs  { return o.costs }
func (o *Oxygen) Apply(d voxel.DomainID, p voxel.Pos, a Air) { o.Field.Apply(d, p, a) }
func (o *Oxygen) Remove(d voxel.DomainID, p voxel.Pos)       { o.Field.Remove(d, p) }

func (o *Oxygen) Breathable(d voxel.DomainID, p voxel.Pos) bool {
	_, ok := o.Field.At(d, p)
	return ok
}

// Gravity overrides the gravity multiplier of voxels (1 is normal gravity).
type Gravity struct {
	Field *effects.Field[float64]
	costs emitter.Costs
}

func NewGravity(field *effects.Field[float64], costs emitter.Costs) *Gravity {
	return &Gravity{Field: field, costs: costs}
}

func (g *Gravity) Name() string         { return GravityName }
func (g *Gravity) Costs() emitter.Costs { return g.costs }
func (g *Gravity) Apply(d voxel.DomainID, p voxel.Pos, m float64) {
	g.Field.Apply(d, p, ClampMultiplier(m))
}
func (g *Gravity) Remove(d voxel.DomainID, p voxel.Pos) { g.Field.Remove(d, p) }

// Multiplier returns the effective gravity at p; voxels outside every zone
// keep the domain's natural gravity.
func (g *Gravity) Multiplier(d voxel.DomainID, p voxel.Pos, natural float64) float64 {
	if m, ok := g.Field.At(d, p); ok {
		return m
	}
	return natural
}

// ClampMultiplier bounds a gravity multiplier to [0, 2].
func ClampMultiplier(m float64) float64 {
	if m < 0 {
		return 0
	}
	if m > 2 {
		return 2
	}
	return m
}

var (
	_ emitter.Kind[Air]     = (*Oxygen)(nil)
	_ emitter.Kind[float64] = (*Gravity)(nil)
)
