package terrain

import (
	"crypto/sha256"
	"encoding/binary"
)

const SectionSize = 16

// Block ids. Anything other than Air blocks zone growth.
const (
	Air   uint16 = 0
	Solid uint16 = 1
	Glass uint16 = 2
	// Emitter marks a voxel holding an emitter block.
	Emitter uint16 = 3
)

type SectionKey struct {
	CX int
	CY int
	CZ int
}

type Section struct {
	CX, CY, CZ int
	Blocks     []uint16 // len = 16*16*16

	dirty bool
	hash  [32]byte
}

func newSection(k SectionKey) *Section {
	return &Section{
		CX:     k.CX,
		CY:     k.CY,
		CZ:     k.CZ,
		Blocks: make([]uint16, SectionSize*SectionSize*SectionSize),
		dirty:  true,
	}
}

func (s *Section) index(x, y, z int) int {
	return x + z*SectionSize + y*SectionSize*SectionSize
}

func (s *Section) Get(x, y, z int) uint16 {
	return s.Blocks[s.index(x, y, z)]
}

func (s *Section) Set(x, y, z int, b uint16) {
	i := s.index(x, y, z)
	if s.Blocks[i] == b {
		return
	}
	s.Blocks[i] = b
	s.dirty = true
}

func (s *Section) Digest() [32]byte {
	if s.dirty || s.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range s.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(s.hash[:], h.Sum(nil))
		s.dirty = false
	}
	return s.hash
}

func (s *Section) empty() bool {
	for _, b := range s.Blocks {
		if b != Air {
			return false
		}
	}
	return true
}
