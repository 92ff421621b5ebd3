package sim

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// StateDigest hashes everything that determines future ticks: terrain, emitter
// lifecycle state, reservoirs and owned zones. Two runs fed the same commands
// produce the same digest tick for tick.
func (s *Simulation) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, s.tick.Load())
	for _, id := range s.order {
		d := s.domains[id]
		h.Write([]byte(d.id))
		h.Write([]byte{0})
		h.Write([]byte(d.store.Digest()))
		digestWriteU64(h, &tmp, uint64(len(d.emitters)))
		for _, p := range d.emitters {
			r := p.t.Report()
			for _, v := range r.ID.Origin.Array() {
				digestWriteI64(h, &tmp, int64(v))
			}
			h.Write([]byte(r.Kind))
			h.Write([]byte{boolByte(r.Active), boolByte(r.ManualDisable)})
			digestWriteI64(h, &tmp, int64(r.Radius))
			digestWriteI64(h, &tmp, r.EnergyStored)
			digestWriteI64(h, &tmp, r.GasStored)
			// An unencodable payload hashes its error, so the digest never
			// matches a healthy run.
			raw, err := p.t.PayloadJSON()
			if err != nil {
				raw = []byte(err.Error())
			}
			h.Write(raw)
			zone := p.t.Zone()
			digestWriteU64(h, &tmp, uint64(len(zone)))
			for _, v := range zone {
				digestWriteI64(h, &tmp, int64(v.X))
				digestWriteI64(h, &tmp, int64(v.Y))
				digestWriteI64(h, &tmp, int64(v.Z))
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
