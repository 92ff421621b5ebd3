package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	persistlog "zonecraft.ai/internal/persistence/log"
	"zonecraft.ai/internal/sim"
)

type replay struct {
	// Accepted commands and logged cycles at or after the start tick, in log
	// order.
	commands []persistlog.CommandEntry
	cycles   []sim.CycleRecord
}

type result struct {
	Ticks    uint64
	Commands int
	Cycles   int
	Verified int
}

func (r replay) lastTick(start uint64) uint64 {
	last := start
	if n := len(r.commands); n > 0 && r.commands[n-1].Tick > last {
		last = r.commands[n-1].Tick
	}
	if n := len(r.cycles); n > 0 && r.cycles[n-1].Tick > last {
		last = r.cycles[n-1].Tick
	}
	return last
}

// run steps s until it reaches tick to. Each logged command is applied right
// before the tick it was recorded against, and every cycle produced is
// compared with the logged one at the same position.
func (r replay) run(s *sim.Simulation, to uint64) (result, error) {
	var (
		res  result
		ci   int
		logi int
	)
	for s.CurrentTick() < to {
		tick := s.CurrentTick()
		for ; ci < len(r.commands) && r.commands[ci].Tick == tick; ci++ {
			cmd, err := sim.DecodeCommand(r.commands[ci].Body)
			if err != nil {
				return res, fmt.Errorf("tick %d: decode command: %w", tick, err)
			}
			if err := cmd.Apply(s); err != nil {
				return res, fmt.Errorf("tick %d: command %s was accepted live but fails on replay: %w", tick, r.commands[ci].Type, err)
			}
			res.Commands++
		}

		for _, got := range s.StepOnce() {
			res.Cycles++
			if r.cycles == nil {
				continue
			}
			if logi >= len(r.cycles) {
				return res, fmt.Errorf("tick %d: cycle log ended early", tick)
			}
			want := r.cycles[logi]
			logi++
			if got != want {
				return res, fmt.Errorf("tick %d: cycle mismatch:\n got=%+v\nwant=%+v", tick, got, want)
			}
			res.Verified++
		}
		res.Ticks++
	}
	return res, nil
}

func loadCommands(dir string, from uint64) ([]persistlog.CommandEntry, error) {
	var out []persistlog.CommandEntry
	err := readLogs(dir, "commands-", func(line []byte) error {
		var e persistlog.CommandEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		if e.Tick >= from && e.Result == "ok" {
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func loadCycles(dir string, from uint64) ([]sim.CycleRecord, error) {
	out := []sim.CycleRecord{}
	err := readLogs(dir, "cycles-", func(line []byte) error {
		var rec sim.CycleRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		if rec.Tick >= from {
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// readLogs feeds every line of every <prefix>*.jsonl.zst in dir to fn, files
// in name order.
func readLogs(dir, prefix string, fn func(line []byte) error) error {
	files, err := listLogFiles(dir, prefix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s*.jsonl.zst files in %s", prefix, dir)
	}
	for _, path := range files {
		if err := readFile(path, fn); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func listLogFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func readFile(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}
