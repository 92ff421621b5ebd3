package terrain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"zonecraft.ai/internal/sim/zone/voxel"
)

// Store is a sparse, sectioned voxel grid for one domain. Unloaded sections read
// as Air. There is no procedural generation; content comes from layouts or SetBlock.
type Store struct {
	MinY int
	MaxY int // exclusive

	Sections map[SectionKey]*Section
}

func NewStore(minY, maxY int) *Store {
	if maxY <= minY {
		maxY = minY + 1
	}
	return &Store{
		MinY:     minY,
		MaxY:     maxY,
		Sections: map[SectionKey]*Section{},
	}
}

func (s *Store) InBounds(p voxel.Pos) bool {
	return p.Y >= s.MinY && p.Y < s.MaxY
}

func sectionOf(p voxel.Pos) (SectionKey, int, int, int) {
	k := SectionKey{
		CX: voxel.FloorDiv(p.X, SectionSize),
		CY: voxel.FloorDiv(p.Y, SectionSize),
		CZ: voxel.FloorDiv(p.Z, SectionSize),
	}
	return k, voxel.Mod(p.X, SectionSize), voxel.Mod(p.Y, SectionSize), voxel.Mod(p.Z, SectionSize)
}

// GetBlock returns Solid outside the vertical bounds.
func (s *Store) GetBlock(p voxel.Pos) uint16 {
	if !s.InBounds(p) {
		return Solid
	}
	k, lx, ly, lz := sectionOf(p)
	sec, ok := s.Sections[k]
	if !ok {
		return Air
	}
	return sec.Get(lx, ly, lz)
}

func (s *Store) SetBlock(p voxel.Pos, b uint16) {
	if !s.InBounds(p) {
		return
	}
	k, lx, ly, lz := sectionOf(p)
	sec, ok := s.Sections[k]
	if !ok {
		if b == Air {
			return
		}
		sec = newSection(k)
		s.Sections[k] = sec
	}
	sec.Set(lx, ly, lz, b)
}

// LoadSection installs a whole section, as read back from a snapshot.
func (s *Store) LoadSection(k SectionKey, blocks []uint16) error {
	if len(blocks) != SectionSize*SectionSize*SectionSize {
		return fmt.Errorf("section %d,%d,%d: %d blocks", k.CX, k.CY, k.CZ, len(blocks))
	}
	sec := newSection(k)
	copy(sec.Blocks, blocks)
	s.Sections[k] = sec
	return nil
}

func (s *Store) IsPassable(p voxel.Pos) bool {
	return s.InBounds(p) && s.GetBlock(p) == Air
}

// Fill sets every voxel in the inclusive box [a,b].
func (s *Store) Fill(a, b voxel.Pos, block uint16) {
	lo, hi := boxBounds(a, b)
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				s.SetBlock(voxel.Pos{X: x, Y: y, Z: z}, block)
			}
		}
	}
}

// Shell sets the faces of the inclusive box [a,b] and clears its interior, which
// is the usual sealed room.
func (s *Store) Shell(a, b voxel.Pos, block uint16) {
	lo, hi := boxBounds(a, b)
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				face := x == lo.X || x == hi.X || y == lo.Y || y == hi.Y || z == lo.Z || z == hi.Z
				if face {
					s.SetBlock(voxel.Pos{X: x, Y: y, Z: z}, block)
				} else {
					s.SetBlock(voxel.Pos{X: x, Y: y, Z: z}, Air)
				}
			}
		}
	}
}

func boxBounds(a, b voxel.Pos) (voxel.Pos, voxel.Pos) {
	lo := voxel.Pos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
	hi := voxel.Pos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
	return lo, hi
}

func (s *Store) LoadedSectionKeys() []SectionKey {
	keys := make([]SectionKey, 0, len(s.Sections))
	for k, sec := range s.Sections {
		if sec.empty() {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// Digest hashes bounds plus every non-empty section in key order.
func (s *Store) Digest() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%d;", s.MinY, s.MaxY)
	for _, k := range s.LoadedSectionKeys() {
		d := s.Sections[k].Digest()
		fmt.Fprintf(h, "%d,%d,%d:", k.CX, k.CY, k.CZ)
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Worlds maps domains to stores and implements voxel.WorldView. Unknown domains
// report nothing passable.
type Worlds struct {
	mu     sync.RWMutex
	stores map[voxel.DomainID]*Store
}

func NewWorlds() *Worlds {
	return &Worlds{stores: map[voxel.DomainID]*Store{}}
}

func (w *Worlds) Put(domain voxel.DomainID, s *Store) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stores[domain] = s
}

func (w *Worlds) Get(domain voxel.DomainID) *Store {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stores[domain]
}

func (w *Worlds) IsPassable(domain voxel.DomainID, p voxel.Pos) bool {
	s := w.Get(domain)
	if s == nil {
		return false
	}
	return s.IsPassable(p)
}

func (w *Worlds) VerticalBounds(domain voxel.DomainID) (int, int) {
	s := w.Get(domain)
	if s == nil {
		return 0, 0
	}
	return s.MinY, s.MaxY
}
