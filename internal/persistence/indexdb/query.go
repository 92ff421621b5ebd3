package indexdb

import (
	"context"
	"strings"

	"zonecraft.ai/internal/sim"
)

// CycleQuery filters indexed cycle records. Zero fields match everything.
type CycleQuery struct {
	Domain  string
	Origin  *[3]int
	Outcome string
	// Since is inclusive.
	Since uint64
	// Limit defaults to 100.
	Limit int
}

// Cycles returns matching records newest first. Rows still queued behind the
// writer are not visible yet.
func (s *SQLiteIndex) Cycles(ctx context.Context, q CycleQuery) ([]sim.CycleRecord, error) {
	var (
		where []string
		args  []any
	)
	if q.Domain != "" {
		where = append(where, "domain=?")
		args = append(args, q.Domain)
	}
	if q.Origin != nil {
		where = append(where, "x=? AND y=? AND z=?")
		args = append(args, q.Origin[0], q.Origin[1], q.Origin[2])
	}
	if q.Outcome != "" {
		where = append(where, "outcome=?")
		args = append(args, q.Outcome)
	}
	if q.Since > 0 {
		where = append(where, "tick>=?")
		args = append(args, int64(q.Since))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT tick,domain,x,y,z,kind,radius,candidates,granted,trimmed,added,removed,zone_size,energy_cost,gas_cost,energy_used,gas_used,energy_per_tick,gas_per_tick,outcome FROM cycles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY tick DESC, domain, x, y, z LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.CycleRecord
	for rows.Next() {
		var (
			c    sim.CycleRecord
			tick int64
		)
		if err := rows.Scan(
			&tick, &c.Domain, &c.Origin[0], &c.Origin[1], &c.Origin[2],
			&c.Kind, &c.Radius, &c.Candidates, &c.Granted, &c.Trimmed,
			&c.Added, &c.Removed, &c.ZoneSize,
			&c.EnergyCost, &c.GasCost, &c.EnergyUsed, &c.GasUsed,
			&c.EnergyPerTick, &c.GasPerTick, &c.Outcome,
		); err != nil {
			return nil, err
		}
		c.Tick = uint64(tick)
		out = append(out, c)
	}
	return out, rows.Err()
}
