package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func sample(tick uint64) SnapshotV1 {
	return SnapshotV1{
		Header:   Header{Version: Version, Tick: tick, Digest: "abc"},
		TickRate: 20,
		Domains: []DomainV1{{
			ID: "station", MinY: -64, MaxY: 320, NaturalGravity: 1,
			Sections: []SectionV1{{CX: 0, CY: 0, CZ: -1, Blocks: []uint16{0, 1, 2}}},
		}},
		Emitters: []EmitterV1{
			{Domain: "station", Kind: "oxygen", Origin: [3]int{0, 1, 0}, SupplyGas: 5, Active: true, Radius: 3, EnergyStored: 90, GasStored: 7},
			{Domain: "station", Kind: "gravity", Origin: [3]int{2, 1, 0}, ManualDisable: true, Payload: []byte("0.5")},
		},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	dir := t.TempDir()
	p := PathFor(dir, 120)
	want := sample(120)
	if err := WriteSnapshot(p, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Header != want.Header || got.TickRate != 20 {
		t.Fatalf("header=%+v", got.Header)
	}
	if len(got.Emitters) != 2 || got.Emitters[1].Kind != "gravity" || string(got.Emitters[1].Payload) != "0.5" {
		t.Fatalf("emitters=%+v", got.Emitters)
	}
	if got.Emitters[0].GasStored != 7 || !got.Emitters[0].Active {
		t.Fatalf("emitter state lost: %+v", got.Emitters[0])
	}
	if b := got.Domains[0].Sections[0].Blocks; len(b) != 3 || b[2] != 2 {
		t.Fatalf("blocks=%v", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}

	h, err := ReadHeader(p)
	if err != nil || h.Tick != 120 {
		t.Fatalf("ReadHeader=%+v err=%v", h, err)
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.snap.zst")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := zstd.NewWriter(f)
	_, _ = enc.Write([]byte("{\"version\":9,\"tick\":1}\n"))
	_ = enc.Close()
	_ = f.Close()

	if _, err := ReadSnapshot(p); !errors.Is(err, ErrVersion) {
		t.Fatalf("expected ErrVersion, got %v", err)
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if p, err := Latest(dir); err != nil || p != "" {
		t.Fatalf("empty dir: %q %v", p, err)
	}
	for _, tick := range []uint64{900, 12000, 4000} {
		if err := WriteSnapshot(PathFor(dir, tick), sample(tick)); err != nil {
			t.Fatal(err)
		}
	}
	p, err := Latest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if p != PathFor(dir, 12000) {
		t.Fatalf("latest=%s", p)
	}
}
