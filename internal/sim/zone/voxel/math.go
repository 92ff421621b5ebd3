package voxel

import "sort"

func FloorDiv(a, b int) int {
	// b > 0
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

func Mod(a, b int) int {
	// b > 0
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash mixes a position into a well-distributed 64-bit value.
func Hash(seed int64, p Pos) uint64 {
	ux := uint64(uint32(int32(p.X)))
	uy := uint64(uint32(int32(p.Y)))
	uz := uint64(uint32(int32(p.Z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Phase returns a stable tick offset in [0, interval) derived from an origin.
// Emitters use it to stagger their distribution cycles.
func Phase(origin Pos, interval int) int {
	if interval <= 1 {
		return 0
	}
	return int(Hash(0, origin) % uint64(interval))
}

func SortPositions(ps []Pos) {
	sort.Slice(ps, func(i, j int) bool { return Less(ps[i], ps[j]) })
}
