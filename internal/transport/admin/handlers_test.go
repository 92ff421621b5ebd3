package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"zonecraft.ai/internal/persistence/indexdb"
	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/tuning"
)

func running(t *testing.T) *sim.Simulation {
	t.Helper()
	tn := tuning.Defaults()
	tn.TickRateHz = 1000
	l, err := layout.Load("")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	s, err := sim.FromLayout(tn, l)
	if err != nil {
		t.Fatalf("FromLayout: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var msg protocol.ErrorMsg
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return msg.Code
}

func TestCommandEndpoint(t *testing.T) {
	h := &Handlers{Sim: running(t)}
	cmd := h.local(h.command)

	place := `{"type":"place","domain":"station","kind":"gravity","origin":[2,1,2],"payload":0.5,"initial":{"energy":5000,"gas":500}}`
	if rec := do(t, cmd, http.MethodPost, "/admin/v1/commands", place); rec.Code != http.StatusOK {
		t.Fatalf("place status=%d body=%s", rec.Code, rec.Body.String())
	}

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicate", place, http.StatusConflict, protocol.ErrEmitterExists},
		{"unknown domain", `{"type":"remove","domain":"moon","origin":[0,0,0]}`, http.StatusNotFound, protocol.ErrDomainNotFound},
		{"unknown emitter", `{"type":"disable","domain":"station","origin":[4,4,4],"disabled":true}`, http.StatusNotFound, protocol.ErrEmitterNotFound},
		{"unknown kind", `{"type":"place","domain":"station","kind":"plasma","origin":[3,1,3]}`, http.StatusBadRequest, protocol.ErrUnknownKind},
		{"malformed", `{"type":`, http.StatusBadRequest, protocol.ErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, cmd, http.MethodPost, "/admin/v1/commands", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.status, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tc.code {
				t.Fatalf("code=%q want %q", code, tc.code)
			}
		})
	}

	if rec := do(t, cmd, http.MethodGet, "/admin/v1/commands", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status=%d", rec.Code)
	}
}

func TestStateEndpoint(t *testing.T) {
	h := &Handlers{Sim: running(t)}
	rec := do(t, h.local(h.state), http.MethodGet, "/admin/v1/state?zones=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Domains) != 1 || resp.Domains[0].Domain != "station" || len(resp.Domains[0].Emitters) != 1 {
		t.Fatalf("state=%+v", resp)
	}
}

func TestRemoteCallersForbidden(t *testing.T) {
	h := &Handlers{Sim: running(t)}
	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	rec := httptest.NewRecorder()
	h.local(h.state)(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403", rec.Code)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	h := &Handlers{Sim: running(t)}
	snap := h.local(h.snapshot)
	if rec := do(t, snap, http.MethodPost, "/admin/v1/snapshot", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled status=%d", rec.Code)
	}
	h.Snapshot = func(ctx context.Context) (string, uint64, error) { return "/data/snapshots/000000000007.snap.zst", 7, nil }
	rec := do(t, snap, http.MethodPost, "/admin/v1/snapshot", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"tick":7`) {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCyclesEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	for tick := uint64(0); tick < 60; tick += 20 {
		_ = idx.WriteCycle(sim.CycleRecord{Tick: tick, Domain: "station", Origin: [3]int{0, 1, 0}, Kind: "oxygen", Outcome: "COMMITTED"})
	}
	_ = idx.Close()
	idx, err = indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	h := &Handlers{Index: idx}
	cycles := h.local(h.cycles)

	rec := do(t, cycles, http.MethodGet, "/admin/v1/cycles?domain=station&origin=0,1,0&outcome=committed&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var recs []sim.CycleRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 2 || recs[0].Tick != 40 {
		t.Fatalf("recs=%+v", recs)
	}

	if rec := do(t, cycles, http.MethodGet, "/admin/v1/cycles?origin=1,2", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad origin status=%d", rec.Code)
	}
}

func TestClassifyTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if status, code := classify(ctx.Err()); status != http.StatusServiceUnavailable || code != protocol.ErrBusy {
		t.Fatalf("classify=%d %s", status, code)
	}
}
