package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	persistlog "zonecraft.ai/internal/persistence/log"
	"zonecraft.ai/internal/persistence/snapshot"
	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
	"zonecraft.ai/internal/telemetry"
	"zonecraft.ai/internal/transport/admin"
	"zonecraft.ai/internal/transport/observer"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "http listen address")
		configDir   = flag.String("configs", "./configs", "config directory")
		dataDir     = flag.String("data", "./data", "runtime data directory")
		tuningPath  = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		layoutPath  = flag.String("domains", "", "path to domains.yaml (default: <configs>/domains.yaml)")
		disableDB   = flag.Bool("disable_db", false, "disable indexing (cycles + snapshot metadata)")
		telemetryOn = flag.Bool("telemetry", true, "write windowed cycle statistics to <data>/telemetry")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		maxObservers = flag.Int("max_observers", 64, "max concurrent observer sessions")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	_ = os.MkdirAll(*dataDir, 0o755)
	snapDir := filepath.Join(*dataDir, "snapshots")

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	lp := strings.TrimSpace(*layoutPath)
	if lp == "" {
		lp = filepath.Join(*configDir, "domains.yaml")
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		latest, err := snapshot.Latest(snapDir)
		if err != nil {
			logger.Printf("scan snapshots: %v", err)
		}
		snapshotToLoad = latest
	}

	// Tuning is required for a fresh start; a resume can run on defaults.
	tune, err := tuning.Load(tp)
	if err != nil {
		if snapshotToLoad == "" || !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	var s *sim.Simulation
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		s, err = sim.FromSnapshot(tune, snap)
		if err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		if got := s.StateDigest(); got != snap.Header.Digest {
			logger.Printf("snapshot digest mismatch: file=%s restored=%s", snap.Header.Digest, got)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), s.CurrentTick())
	} else {
		l, err := layout.Load(lp)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Fatalf("load domains: %v", err)
			}
			logger.Printf("domains not found (%s); using built-in station", lp)
			l, _ = layout.Load("")
		}
		s, err = sim.FromLayout(tune, l)
		if err != nil {
			logger.Fatalf("build simulation: %v", err)
		}
		logger.Printf("fresh start: domains=%d", len(s.Domains()))
	}

	// Read-model index backends (do not affect sim determinism).
	idx, err := openRuntimeIndex(*dataDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	defer idx.Close()
	if idx.Local != nil {
		if err := idx.Local.UpsertTuning(tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	cycleLog := persistlog.NewCycleLogger(*dataDir)
	defer cycleLog.Close()
	s.AddCycleSink(cycleLog)
	for _, k := range idx.sinks() {
		s.AddCycleSink(k)
	}

	var collector *telemetry.Collector
	if *telemetryOn && tune.TelemetryWindowTicks > 0 {
		out, err := telemetry.CreateCSV(filepath.Join(*dataDir, "telemetry"), "windows.csv")
		if err != nil {
			logger.Fatalf("telemetry: %v", err)
		}
		collector = telemetry.NewCollector(tune.TelemetryWindowTicks, out)
		defer func() {
			if err := collector.Close(); err != nil {
				logger.Printf("telemetry close: %v", err)
			}
		}()
		s.AddCycleSink(collector)
	}

	commandLog := persistlog.NewCommandLogger(*dataDir)
	defer commandLog.Close()

	hub := observer.NewHub(*maxObservers)
	s.SetFrameSink(hub)

	ctx, cancel := signalContext()
	defer cancel()

	// Snapshot writer. Admin-triggered snapshots share writeSnap so two
	// writes never race on one path.
	var snapMu sync.Mutex
	writeSnap := func(snap snapshot.SnapshotV1) (string, error) {
		snapMu.Lock()
		defer snapMu.Unlock()
		path := snapshot.PathFor(snapDir, snap.Header.Tick)
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			return "", err
		}
		for _, k := range idx.sinks() {
			k.RecordSnapshot(path, snap)
		}
		return path, nil
	}
	snapCh := make(chan snapshot.SnapshotV1, 2)
	s.SetSnapshotSink(snapCh)
	var writerDone sync.WaitGroup
	writerDone.Add(1)
	go func() {
		defer writerDone.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				if _, err := writeSnap(snap); err != nil {
					logger.Printf("snapshot write: %v", err)
				}
			}
		}
	}()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := s.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("simulation stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		ctx2, cancel2 := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel2()
		var v metricsView
		err := s.Do(ctx2, func(s *sim.Simulation) error {
			v.Tick = s.CurrentTick()
			v.Frames = s.Status(false)
			if collector != nil {
				v.TelemetryRows = collector.Rows()
			}
			return nil
		})
		if err != nil {
			v.Tick = s.CurrentTick()
		}
		if idx.Local != nil {
			st := idx.Local.Stats()
			v.Index = &st
		}
		if idx.Remote != nil {
			st := idx.Remote.Stats()
			v.Remote = &st
		}
		v.ObserverSessions = hub.Sessions()
		v.ObserverDropped = hub.Dropped()

		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeMetrics(rw, v)
	})

	enableAdminHTTP := envBool("ZC_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP())
	enablePprofHTTP := envBool("ZC_ENABLE_PPROF_HTTP", false)
	if enableAdminHTTP {
		h := &admin.Handlers{
			Sim:      s,
			Index:    idx.Local,
			Commands: commandLog,
			Log:      logger,
			Snapshot: func(ctx context.Context) (string, uint64, error) {
				var snap snapshot.SnapshotV1
				if err := s.Do(ctx, func(s *sim.Simulation) error {
					snap = s.ExportSnapshot()
					return nil
				}); err != nil {
					return "", 0, err
				}
				path, err := writeSnap(snap)
				return path, snap.Header.Tick, err
			},
		}
		h.Register(mux)

		obsSrv := observer.NewServer(hub, func(ctx context.Context) (protocol.BootstrapResponse, error) {
			var resp protocol.BootstrapResponse
			err := s.Do(ctx, func(s *sim.Simulation) error {
				resp = s.Bootstrap()
				return nil
			})
			return resp, err
		}, logger)
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
		mux.HandleFunc("/admin/v1/observer/ws", obsSrv.WSHandler())
	} else {
		logger.Printf("admin endpoints disabled (ZC_ENABLE_ADMIN_HTTP=false)")
	}
	if enablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (ZC_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Printf("ListenAndServe: %v", err)
		cancel()
	}

	<-runDone
	writerDone.Wait()
	logger.Printf("stopped at tick=%d", s.CurrentTick())
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
