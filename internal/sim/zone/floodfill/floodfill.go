package floodfill

import "zonecraft.ai/internal/sim/zone/voxel"

// Explorer finds the passable region reachable from an origin. It keeps scratch
// buffers between calls to avoid reallocating, but no traversal state: every
// Explore starts from scratch so newly solid or newly opened voxels are honored.
type Explorer struct {
	View voxel.WorldView

	visited map[voxel.Pos]struct{}
	queue   []voxel.Pos
}

func New(view voxel.WorldView) *Explorer {
	return &Explorer{View: view}
}

// Explore runs a 6-connected breadth-first search from the passable neighbors of
// origin (and origin itself when passable). A voxel is accepted when it is
// passable, inside the domain's vertical bounds and within radius (squared
// Euclidean). The search stops once budget voxels were accepted; a capped result
// is a valid, smaller region.
//
// The returned slice is in acceptance order and is owned by the caller.
func (e *Explorer) Explore(domain voxel.DomainID, origin voxel.Pos, radius, budget int) []voxel.Pos {
	if e == nil || e.View == nil || budget <= 0 || radius < 0 {
		return nil
	}
	minY, maxY := e.View.VerticalBounds(domain)
	rSq := radius * radius

	if e.visited == nil {
		e.visited = make(map[voxel.Pos]struct{}, 1024)
	} else {
		clear(e.visited)
	}
	e.queue = e.queue[:0]

	accept := func(p voxel.Pos) bool {
		if _, seen := e.visited[p]; seen {
			return false
		}
		e.visited[p] = struct{}{}
		if p.Y < minY || p.Y >= maxY {
			return false
		}
		if voxel.DistSq(p, origin) > rSq {
			return false
		}
		return e.View.IsPassable(domain, p)
	}

	out := make([]voxel.Pos, 0, min(budget, 256))

	// The origin voxel normally holds the emitter block; it only joins the
	// region when it is itself passable.
	e.visited[origin] = struct{}{}
	if origin.Y >= minY && origin.Y < maxY && e.View.IsPassable(domain, origin) {
		out = append(out, origin)
		e.queue = append(e.queue, origin)
		if len(out) >= budget {
			return out
		}
	} else {
		for _, d := range voxel.Neighbors6 {
			np := origin.Add(d)
			if !accept(np) {
				continue
			}
			out = append(out, np)
			e.queue = append(e.queue, np)
			if len(out) >= budget {
				return out
			}
		}
	}

	for head := 0; head < len(e.queue); head++ {
		cur := e.queue[head]
		for _, d := range voxel.Neighbors6 {
			np := cur.Add(d)
			if !accept(np) {
				continue
			}
			out = append(out, np)
			e.queue = append(e.queue, np)
			if len(out) >= budget {
				return out
			}
		}
	}
	return out
}

// Explore is a one-shot helper for callers that do not keep an Explorer.
func Explore(view voxel.WorldView, domain voxel.DomainID, origin voxel.Pos, radius, budget int) []voxel.Pos {
	return New(view).Explore(domain, origin, radius, budget)
}
