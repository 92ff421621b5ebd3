package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable, derived copy of the cycle logs and snapshot
// history. Writes are queued and applied by one goroutine in batched
// transactions; when the queue is full the write is dropped and counted.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropCycle    atomic.Uint64
	dropSnapshot atomic.Uint64
	writeFail    atomic.Uint64
}

type reqKind int

const (
	reqCycle reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	cycle    sim.CycleRecord
	snapshot snapshotRow
}

type snapshotRow struct {
	Tick       uint64
	Path       string
	Digest     string
	Domains    int
	Emitters   int
	ZoneVoxels int
	States     []emitterRow
}

type emitterRow struct {
	Domain   string
	Origin   [3]int
	Kind     string
	Active   bool
	Disabled bool
	Radius   int
	ZoneSize int
	Energy   int64
	Gas      int64
}

// Stats reports queue pressure, for the server's periodic status line.
type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropCycleTotal    uint64
	DropSnapshotTotal uint64
	WriteFailTotal    uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Every emitter cycles every few ticks; leave room for bursts.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS cycles (
			tick INTEGER NOT NULL,
			domain TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			kind TEXT NOT NULL,
			radius INTEGER NOT NULL,
			candidates INTEGER NOT NULL,
			granted INTEGER NOT NULL,
			trimmed INTEGER NOT NULL,
			added INTEGER NOT NULL,
			removed INTEGER NOT NULL,
			zone_size INTEGER NOT NULL,
			energy_cost INTEGER NOT NULL,
			gas_cost INTEGER NOT NULL,
			energy_used INTEGER NOT NULL,
			gas_used INTEGER NOT NULL,
			energy_per_tick REAL NOT NULL,
			gas_per_tick REAL NOT NULL,
			outcome TEXT NOT NULL,
			PRIMARY KEY (tick, domain, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_emitter_tick ON cycles(domain, x, y, z, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_outcome_tick ON cycles(outcome, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			domains INTEGER NOT NULL,
			emitters INTEGER NOT NULL,
			zone_voxels INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshot_emitters (
			tick INTEGER NOT NULL,
			domain TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			kind TEXT NOT NULL,
			active INTEGER NOT NULL,
			disabled INTEGER NOT NULL,
			radius INTEGER NOT NULL,
			zone_size INTEGER NOT NULL,
			energy INTEGER NOT NULL,
			gas INTEGER NOT NULL,
			PRIMARY KEY (tick, domain, x, y, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropCycleTotal:    s.dropCycle.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		WriteFailTotal:    s.writeFail.Load(),
	}
}

func (s *SQLiteIndex) WriteCycle(rec sim.CycleRecord) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqCycle, cycle: rec}:
	default:
		// The JSONL cycle log remains the source of truth.
		s.dropCycle.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRowOf(path, snap)
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

func snapshotRowOf(path string, snap snapshot.SnapshotV1) snapshotRow {
	r := snapshotRow{
		Tick:     snap.Header.Tick,
		Path:     path,
		Digest:   snap.Header.Digest,
		Domains:  len(snap.Domains),
		Emitters: len(snap.Emitters),
	}
	for _, e := range snap.Emitters {
		r.ZoneVoxels += len(e.Zone)
		r.States = append(r.States, emitterRow{
			Domain:   e.Domain,
			Origin:   e.Origin,
			Kind:     e.Kind,
			Active:   e.Active,
			Disabled: e.ManualDisable,
			Radius:   e.Radius,
			ZoneSize: len(e.Zone),
			Energy:   e.EnergyStored,
			Gas:      e.GasStored,
		})
	}
	return r
}

// UpsertTuning stores the tuning actually applied, so rows can be related to
// the parameters that produced them. It runs synchronously at startup.
func (s *SQLiteIndex) UpsertTuning(t tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", hex.EncodeToString(sum[:]), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertCycle, _ := s.db.Prepare(`INSERT OR REPLACE INTO cycles(tick,domain,x,y,z,kind,radius,candidates,granted,trimmed,added,removed,zone_size,energy_cost,gas_cost,energy_used,gas_used,energy_per_tick,gas_per_tick,outcome) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,digest,domains,emitters,zone_voxels) VALUES(?,?,?,?,?,?)`)
	insertState, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshot_emitters(tick,domain,x,y,z,kind,active,disabled,radius,zone_size,energy,gas) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertCycle, insertSnapshot, insertState} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.writeFail.Add(1)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		s.writeFail.Add(1)
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	// Idle commits keep readers from waiting on an open write transaction.
	idle := time.NewTicker(commitMaxWait)
	defer idle.Stop()

	for {
		var r req
		select {
		case rr, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			r = rr
		case <-idle.C:
			flushIfNeeded()
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqCycle:
			c := r.cycle
			if insertCycle == nil {
				continue
			}
			if _, err := tx.Stmt(insertCycle).Exec(
				int64(c.Tick), c.Domain,
				c.Origin[0], c.Origin[1], c.Origin[2],
				c.Kind, c.Radius, c.Candidates, c.Granted, c.Trimmed,
				c.Added, c.Removed, c.ZoneSize,
				c.EnergyCost, c.GasCost, c.EnergyUsed, c.GasUsed,
				c.EnergyPerTick, c.GasPerTick, c.Outcome,
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot == nil || insertState == nil {
				continue
			}
			if _, err := tx.Stmt(insertSnapshot).Exec(
				int64(sn.Tick), sn.Path, sn.Digest, sn.Domains, sn.Emitters, sn.ZoneVoxels,
			); err != nil {
				rollback()
				continue
			}
			opCount++
			for _, e := range sn.States {
				if _, err := tx.Stmt(insertState).Exec(
					int64(sn.Tick), e.Domain,
					e.Origin[0], e.Origin[1], e.Origin[2],
					e.Kind, boolInt(e.Active), boolInt(e.Disabled),
					e.Radius, e.ZoneSize, e.Energy, e.Gas,
				); err != nil {
					rollback()
					break
				}
				opCount++
			}
		}
		flushIfNeeded()
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
