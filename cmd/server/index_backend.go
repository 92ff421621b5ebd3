package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zonecraft.ai/internal/persistence/indexdb"
)

// runtimeIndex bundles the configured index backends. Local is set only for
// the sqlite backend since it is the only one that can be queried back.
type runtimeIndex struct {
	Local  *indexdb.SQLiteIndex
	Remote *indexdb.RemoteIndex
}

func (r runtimeIndex) sinks() []indexdb.Index {
	var out []indexdb.Index
	if r.Local != nil {
		out = append(out, r.Local)
	}
	if r.Remote != nil {
		out = append(out, r.Remote)
	}
	return out
}

func (r runtimeIndex) Close() {
	for _, idx := range r.sinks() {
		_ = idx.Close()
	}
}

// openRuntimeIndex reads ZC_INDEX_BACKEND: sqlite (default), remote, both or
// none.
func openRuntimeIndex(dataDir string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	var out runtimeIndex
	if disableDB {
		return out, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("ZC_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return out, nil
	case "sqlite", "remote", "both":
	default:
		return out, fmt.Errorf("unsupported ZC_INDEX_BACKEND: %s", backend)
	}

	if backend == "sqlite" || backend == "both" {
		idx, err := indexdb.OpenSQLite(filepath.Join(dataDir, "index", "zones.sqlite"))
		if err != nil {
			return out, err
		}
		out.Local = idx
	}
	if backend == "remote" || backend == "both" {
		endpoint := strings.TrimSpace(os.Getenv("ZC_INDEX_REMOTE_URL"))
		if endpoint == "" {
			out.Close()
			return runtimeIndex{}, fmt.Errorf("ZC_INDEX_BACKEND=%s but ZC_INDEX_REMOTE_URL is empty", backend)
		}
		source := strings.TrimSpace(os.Getenv("ZC_INDEX_SOURCE"))
		if source == "" {
			source, _ = os.Hostname()
		}
		idx, err := indexdb.OpenRemote(indexdb.RemoteConfig{
			Endpoint:      endpoint,
			Token:         strings.TrimSpace(os.Getenv("ZC_INDEX_REMOTE_TOKEN")),
			Source:        source,
			BatchSize:     envInt("ZC_INDEX_REMOTE_BATCH_SIZE", 128),
			FlushInterval: time.Duration(envInt("ZC_INDEX_REMOTE_FLUSH_MS", 500)) * time.Millisecond,
			MaxRetained:   envInt("ZC_INDEX_REMOTE_MAX_RETAINED", 8192),
			Logger:        logger,
		})
		if err != nil {
			out.Close()
			return runtimeIndex{}, err
		}
		out.Remote = idx
	}
	return out, nil
}
