package voxel

import (
	"encoding/json"
	"fmt"
)

// DomainID partitions voxel space (one claim table per domain).
type DomainID string

type Pos struct {
	X int
	Y int
	Z int
}

func (p Pos) Add(d Pos) Pos {
	return Pos{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

func (p Pos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Array is the wire/snapshot form ([x,y,z]).
func (p Pos) Array() [3]int { return [3]int{p.X, p.Y, p.Z} }

func FromArray(a [3]int) Pos { return Pos{X: a[0], Y: a[1], Z: a[2]} }

func (p Pos) MarshalJSON() ([]byte, error) { return json.Marshal(p.Array()) }

func (p *Pos) UnmarshalJSON(b []byte) error {
	var a [3]int
	if err := json.Unmarshal(b, &a); err != nil {
		return fmt.Errorf("pos: want [x,y,z]: %w", err)
	}
	*p = FromArray(a)
	return nil
}

// DistSq is the squared Euclidean distance between a and b.
func DistSq(a, b Pos) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return dx*dx + dy*dy + dz*dz
}

// Neighbors6 is the fixed 6-connected neighbor order. Every traversal uses it so
// results are reproducible for a given grid snapshot.
var Neighbors6 = [6]Pos{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// Less orders positions by X, then Y, then Z.
func Less(a, b Pos) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// WorldView is the read-only voxel query surface the zone engine consumes.
// VerticalBounds returns [min, max): y is valid when min <= y < max.
type WorldView interface {
	IsPassable(domain DomainID, pos Pos) bool
	VerticalBounds(domain DomainID) (min, max int)
}

// Set is a voxel membership set.
type Set map[Pos]struct{}

func NewSet(ps []Pos) Set {
	s := make(Set, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}
	return s
}

func (s Set) Has(p Pos) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in Less order.
func (s Set) Sorted() []Pos {
	out := make([]Pos, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	SortPositions(out)
	return out
}
