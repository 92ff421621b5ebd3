// Package indexdb keeps derived, queryable copies of cycle history: a local
// sqlite file and, optionally, a remote HTTP ingest.
package indexdb

import (
	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/sim"
)

// Index is what the server feeds after every cycle and every written snapshot.
type Index interface {
	sim.CycleSink
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	Close() error
}

var (
	_ Index = (*SQLiteIndex)(nil)
	_ Index = (*RemoteIndex)(nil)
)
