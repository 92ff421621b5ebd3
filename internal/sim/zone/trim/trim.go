package trim

import (
	"sort"

	"zonecraft.ai/internal/sim/zone/voxel"
)

type scored struct {
	p      voxel.Pos
	score  int
	distSq int
}

// better reports whether a ranks ahead of b: more claimed neighbors first, then
// closer to the origin, then position order so equal ranks stay deterministic.
func better(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.distSq != b.distSq {
		return a.distSq < b.distSq
	}
	return voxel.Less(a.p, b.p)
}

// NeighborScore counts the 6-neighbors of p that are members of set.
func NeighborScore(set voxel.Set, p voxel.Pos) int {
	n := 0
	for _, d := range voxel.Neighbors6 {
		if set.Has(p.Add(d)) {
			n++
		}
	}
	return n
}

// Trim keeps the target best-ranked voxels of claimed and returns the rest as
// drop. Interior voxels (many claimed neighbors) are preferred over boundary
// voxels, ties go to voxels closer to origin. Duplicates in claimed are ignored.
func Trim(origin voxel.Pos, claimed []voxel.Pos, target int) (keep, drop []voxel.Pos) {
	set := voxel.NewSet(claimed)
	ranked := make([]scored, 0, len(set))
	for p := range set {
		ranked = append(ranked, scored{p: p, score: NeighborScore(set, p), distSq: voxel.DistSq(p, origin)})
	}
	sort.Slice(ranked, func(i, j int) bool { return better(ranked[i], ranked[j]) })

	if target < 0 {
		target = 0
	}
	if target > len(ranked) {
		target = len(ranked)
	}
	keep = make([]voxel.Pos, 0, target)
	drop = make([]voxel.Pos, 0, len(ranked)-target)
	for i, s := range ranked {
		if i < target {
			keep = append(keep, s.p)
		} else {
			drop = append(drop, s.p)
		}
	}
	return keep, drop
}

// TargetSize is the shrunken zone size used when the consumable reservoir holds
// less than a tenth of its capacity: the zone scales with stored/(capacity/10),
// never below one voxel. ok is false when no shrink applies.
func TargetSize(granted int, stored, capacity int64) (target int, ok bool) {
	threshold := capacity / 10
	if granted <= 0 || threshold <= 0 || stored >= threshold {
		return granted, false
	}
	if stored < 0 {
		stored = 0
	}
	t := int(int64(granted) * stored / threshold)
	if t < 1 {
		t = 1
	}
	if t >= granted {
		return granted, false
	}
	return t, true
}
