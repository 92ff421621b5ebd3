package effects

import (
	"sync"
	"sync/atomic"

	"zonecraft.ai/internal/sim/zone/voxel"
)

// Field holds the effect payload applied to each voxel, sharded per domain.
// Each shard has its own lock, so domains stepping in parallel never contend.
// Apply and Remove are idempotent; the counters only move on real transitions.
type Field[P comparable] struct {
	mu     sync.RWMutex
	shards map[voxel.DomainID]*shard[P]

	applies atomic.Uint64
	removes atomic.Uint64
}

type shard[P comparable] struct {
	mu     sync.RWMutex
	voxels map[voxel.Pos]P
}

func NewField[P comparable]() *Field[P] {
	return &Field[P]{shards: map[voxel.DomainID]*shard[P]{}}
}

// shardFor returns the shard of domain, creating it when create is set.
func (f *Field[P]) shardFor(domain voxel.DomainID, create bool) *shard[P] {
	f.mu.RLock()
	s := f.shards[domain]
	f.mu.RUnlock()
	if s != nil || !create {
		return s
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s = f.shards[domain]; s == nil {
		s = &shard[P]{voxels: map[voxel.Pos]P{}}
		f.shards[domain] = s
	}
	return s
}

func (f *Field[P]) Apply(domain voxel.DomainID, pos voxel.Pos, payload P) {
	s := f.shardFor(domain, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.voxels[pos]; ok && cur == payload {
		return
	}
	s.voxels[pos] = payload
	f.applies.Add(1)
}

func (f *Field[P]) Remove(domain voxel.DomainID, pos voxel.Pos) {
	s := f.shardFor(domain, false)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.voxels[pos]; !ok {
		return
	}
	delete(s.voxels, pos)
	f.removes.Add(1)
}

func (f *Field[P]) At(domain voxel.DomainID, pos voxel.Pos) (P, bool) {
	s := f.shardFor(domain, false)
	if s == nil {
		var zero P
		return zero, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voxels[pos]
	return v, ok
}

func (f *Field[P]) Len(domain voxel.DomainID) int {
	s := f.shardFor(domain, false)
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.voxels)
}

// Counters returns the number of effective applies and removes so far.
func (f *Field[P]) Counters() (applies, removes uint64) {
	return f.applies.Load(), f.removes.Load()
}
