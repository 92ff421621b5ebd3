package main

import (
	"fmt"
	"io"
	"sort"

	"zonecraft.ai/internal/persistence/indexdb"
	"zonecraft.ai/internal/protocol"
)

// metricsView is gathered between ticks so every gauge describes the same
// tick.
type metricsView struct {
	Tick   uint64
	Frames []protocol.FrameMsg

	Index  *indexdb.Stats
	Remote *indexdb.RemoteStats

	ObserverSessions int
	ObserverDropped  uint64
	TelemetryRows    int
}

// writeMetrics renders a minimal Prometheus exposition.
func writeMetrics(w io.Writer, v metricsView) {
	fmt.Fprintf(w, "# HELP zonecraft_tick Current simulation tick.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_tick gauge\n")
	fmt.Fprintf(w, "zonecraft_tick %d\n", v.Tick)

	fmt.Fprintf(w, "# HELP zonecraft_domain_claimed_voxels Voxels claimed in a domain.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_domain_claimed_voxels gauge\n")
	for _, f := range v.Frames {
		fmt.Fprintf(w, "zonecraft_domain_claimed_voxels{domain=%q} %d\n", f.Domain, f.Claimed)
	}

	fmt.Fprintf(w, "# HELP zonecraft_emitters Emitters by domain, kind and status.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_emitters gauge\n")
	for _, f := range v.Frames {
		counts := map[[2]string]int{}
		for _, e := range f.Emitters {
			counts[[2]string{e.Kind, e.Status}]++
		}
		keys := make([][2]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i][0] != keys[j][0] {
				return keys[i][0] < keys[j][0]
			}
			return keys[i][1] < keys[j][1]
		})
		for _, k := range keys {
			fmt.Fprintf(w, "zonecraft_emitters{domain=%q,kind=%q,status=%q} %d\n", f.Domain, k[0], k[1], counts[k])
		}
	}

	fmt.Fprintf(w, "# HELP zonecraft_zone_voxels Zone size per emitter.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_zone_voxels gauge\n")
	for _, f := range v.Frames {
		for _, e := range f.Emitters {
			fmt.Fprintf(w, "zonecraft_zone_voxels{domain=%q,origin=\"%d,%d,%d\",kind=%q} %d\n",
				f.Domain, e.Origin[0], e.Origin[1], e.Origin[2], e.Kind, e.ZoneSize)
		}
	}

	if s := v.Index; s != nil {
		fmt.Fprintf(w, "# HELP zonecraft_index_queue_depth SQLite index writer backlog.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_index_queue_depth gauge\n")
		fmt.Fprintf(w, "zonecraft_index_queue_depth %d\n", s.QueueDepth)
		fmt.Fprintf(w, "# HELP zonecraft_index_dropped_total Index rows dropped because the queue was full.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_index_dropped_total counter\n")
		fmt.Fprintf(w, "zonecraft_index_dropped_total{kind=%q} %d\n", "cycle", s.DropCycleTotal)
		fmt.Fprintf(w, "zonecraft_index_dropped_total{kind=%q} %d\n", "snapshot", s.DropSnapshotTotal)
		fmt.Fprintf(w, "# HELP zonecraft_index_write_fail_total Failed index writes.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_index_write_fail_total counter\n")
		fmt.Fprintf(w, "zonecraft_index_write_fail_total %d\n", s.WriteFailTotal)
	}
	if s := v.Remote; s != nil {
		fmt.Fprintf(w, "# HELP zonecraft_remote_index_queue_depth Remote index backlog.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_remote_index_queue_depth gauge\n")
		fmt.Fprintf(w, "zonecraft_remote_index_queue_depth %d\n", s.QueueDepth)
		fmt.Fprintf(w, "# HELP zonecraft_remote_index_sent_total Events delivered to the remote index.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_remote_index_sent_total counter\n")
		fmt.Fprintf(w, "zonecraft_remote_index_sent_total %d\n", s.SentTotal)
		fmt.Fprintf(w, "# HELP zonecraft_remote_index_flush_fail_total Failed remote flushes.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_remote_index_flush_fail_total counter\n")
		fmt.Fprintf(w, "zonecraft_remote_index_flush_fail_total %d\n", s.FlushFailTotal)
		fmt.Fprintf(w, "# HELP zonecraft_remote_index_dropped_total Events dropped by the remote index.\n")
		fmt.Fprintf(w, "# TYPE zonecraft_remote_index_dropped_total counter\n")
		fmt.Fprintf(w, "zonecraft_remote_index_dropped_total{reason=%q} %d\n", "queue", s.QueueDroppedTotal)
		fmt.Fprintf(w, "zonecraft_remote_index_dropped_total{reason=%q} %d\n", "retain", s.RetainDropTotal)
	}

	fmt.Fprintf(w, "# HELP zonecraft_observer_sessions Connected observers.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_observer_sessions gauge\n")
	fmt.Fprintf(w, "zonecraft_observer_sessions %d\n", v.ObserverSessions)
	fmt.Fprintf(w, "# HELP zonecraft_observer_dropped_frames_total Frames replaced before an observer read them.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_observer_dropped_frames_total counter\n")
	fmt.Fprintf(w, "zonecraft_observer_dropped_frames_total %d\n", v.ObserverDropped)

	fmt.Fprintf(w, "# HELP zonecraft_telemetry_rows_total Telemetry window rows written.\n")
	fmt.Fprintf(w, "# TYPE zonecraft_telemetry_rows_total counter\n")
	fmt.Fprintf(w, "zonecraft_telemetry_rows_total %d\n", v.TelemetryRows)
}
