package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"zonecraft.ai/internal/sim"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()
	var out [][]byte
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		out = append(out, append([]byte(nil), sc.Bytes()...))
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestCycleLoggerAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	l := NewCycleLogger(dir)
	fixed := time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC)
	l.w.now = func() time.Time { return fixed }

	recs := []sim.CycleRecord{
		{Tick: 20, Domain: "station", Kind: "oxygen", Granted: 12, ZoneSize: 12, Outcome: "COMMITTED"},
		{Tick: 40, Domain: "station", Kind: "oxygen", Granted: 12, ZoneSize: 12, Outcome: "COMMITTED"},
	}
	for _, r := range recs {
		if err := l.WriteCycle(r); err != nil {
			t.Fatalf("WriteCycle: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// A second writer on the same hour appends a new zstd frame.
	if err := l.WriteCycle(sim.CycleRecord{Tick: 60, Domain: "station", Outcome: "EMPTY"}); err != nil {
		t.Fatalf("WriteCycle after reopen: %v", err)
	}
	_ = l.Close()

	path := filepath.Join(dir, "cycles", "cycles-2026-03-01-14.jsonl.zst")
	lines := readLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("lines=%d want 3", len(lines))
	}
	var got sim.CycleRecord
	if err := json.Unmarshal(lines[1], &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != recs[1] {
		t.Fatalf("record=%+v want %+v", got, recs[1])
	}
}

func TestWriterRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "commands")
	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	_ = w.Write(CommandEntry{Tick: 1, Type: "place", Result: "ok"})
	now = now.Add(2 * time.Minute)
	_ = w.Write(CommandEntry{Tick: 2, Type: "remove", Result: "ok"})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for _, hour := range []string{"2026-03-01-23", "2026-03-02-00"} {
		if n := len(readLines(t, w.PathForHour(hour))); n != 1 {
			t.Fatalf("%s: lines=%d want 1", hour, n)
		}
	}
}
