package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	tick := fs.Uint64("tick", 0, "snapshot tick (optional; defaults to latest)")
	limit := fs.Int("limit", 20, "result limit")
	domain := fs.String("domain", "", "domain filter")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "zones.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	switch q {
	case "snapshots":
		err = querySnapshots(db, *limit)
	case "emitters":
		if *tick == 0 {
			lt, err := latestSnapshotTick(db)
			if err != nil {
				fmt.Fprintln(os.Stderr, "latest tick:", err)
				os.Exit(1)
			}
			if lt == 0 {
				fmt.Fprintln(os.Stderr, "no snapshots found")
				os.Exit(2)
			}
			*tick = lt
		}
		err = queryEmitters(db, *tick, *domain)
	case "outcomes":
		err = queryOutcomes(db, *domain)
	case "tuning":
		err = queryTuning(db)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-tick T] [-domain D] snapshots|emitters|outcomes|tuning")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
}

func querySnapshots(db *sql.DB, limit int) error {
	rows, err := db.Query(`SELECT tick,path,digest,domains,emitters,zone_voxels FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r struct {
			Tick       int64  `json:"tick"`
			Path       string `json:"path"`
			Digest     string `json:"digest"`
			Domains    int    `json:"domains"`
			Emitters   int    `json:"emitters"`
			ZoneVoxels int    `json:"zone_voxels"`
		}
		if err := rows.Scan(&r.Tick, &r.Path, &r.Digest, &r.Domains, &r.Emitters, &r.ZoneVoxels); err != nil {
			return err
		}
		printJSON(r)
	}
	return rows.Err()
}

func queryEmitters(db *sql.DB, tick uint64, domain string) error {
	q := `SELECT domain,x,y,z,kind,active,disabled,radius,zone_size,energy,gas FROM snapshot_emitters WHERE tick=?`
	args := []any{tick}
	if domain != "" {
		q += ` AND domain=?`
		args = append(args, domain)
	}
	q += ` ORDER BY domain,x,y,z`
	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r struct {
			Tick     uint64 `json:"tick"`
			Domain   string `json:"domain"`
			Origin   [3]int `json:"origin"`
			Kind     string `json:"kind"`
			Active   bool   `json:"active"`
			Disabled bool   `json:"disabled"`
			Radius   int    `json:"radius"`
			ZoneSize int    `json:"zone_size"`
			Energy   int64  `json:"energy"`
			Gas      int64  `json:"gas"`
		}
		if err := rows.Scan(&r.Domain, &r.Origin[0], &r.Origin[1], &r.Origin[2], &r.Kind, &r.Active, &r.Disabled,
			&r.Radius, &r.ZoneSize, &r.Energy, &r.Gas); err != nil {
			return err
		}
		r.Tick = tick
		printJSON(r)
	}
	return rows.Err()
}

// queryOutcomes counts indexed cycles per domain, kind and outcome.
func queryOutcomes(db *sql.DB, domain string) error {
	q := `SELECT domain,kind,outcome,COUNT(*),COALESCE(SUM(trimmed),0),COALESCE(MAX(tick),0) FROM cycles`
	var args []any
	if domain != "" {
		q += ` WHERE domain=?`
		args = append(args, domain)
	}
	q += ` GROUP BY domain,kind,outcome ORDER BY domain,kind,outcome`
	rows, err := db.Query(q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r struct {
			Domain   string `json:"domain"`
			Kind     string `json:"kind"`
			Outcome  string `json:"outcome"`
			Cycles   int64  `json:"cycles"`
			Trimmed  int64  `json:"trimmed_voxels"`
			LastTick int64  `json:"last_tick"`
		}
		if err := rows.Scan(&r.Domain, &r.Kind, &r.Outcome, &r.Cycles, &r.Trimmed, &r.LastTick); err != nil {
			return err
		}
		printJSON(r)
	}
	return rows.Err()
}

func queryTuning(db *sql.DB) error {
	var digest, raw string
	if err := db.QueryRow(`SELECT digest,json FROM configs WHERE name='tuning'`).Scan(&digest, &raw); err != nil {
		return err
	}
	printJSON(struct {
		Digest string          `json:"digest"`
		Tuning json.RawMessage `json:"tuning"`
	}{digest, json.RawMessage(raw)})
	return nil
}

func latestSnapshotTick(db *sql.DB) (uint64, error) {
	if db == nil {
		return 0, fmt.Errorf("nil db")
	}
	var t int64
	if err := db.QueryRow(`SELECT COALESCE(MAX(tick),0) FROM snapshots`).Scan(&t); err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, nil
	}
	return uint64(t), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
