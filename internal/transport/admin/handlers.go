// Package admin serves the local control surface: state, commands, snapshots
// and indexed cycle history.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zonecraft.ai/internal/persistence/indexdb"
	persistlog "zonecraft.ai/internal/persistence/log"
	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim"
	"zonecraft.ai/internal/sim/zone/kinds"
	"zonecraft.ai/internal/transport/observer"
)

// SnapshotFunc writes a snapshot now and reports where.
type SnapshotFunc func(ctx context.Context) (path string, tick uint64, err error)

type Handlers struct {
	Sim *sim.Simulation
	// Optional.
	Index    *indexdb.SQLiteIndex
	Snapshot SnapshotFunc
	Commands *persistlog.CommandLogger
	Log      *log.Logger

	AllowRemote bool
}

// Register mounts every endpoint under /admin/v1/.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/v1/state", h.local(h.state))
	mux.HandleFunc("/admin/v1/commands", h.local(h.command))
	mux.HandleFunc("/admin/v1/snapshot", h.local(h.snapshot))
	mux.HandleFunc("/admin/v1/cycles", h.local(h.cycles))
}

func (h *Handlers) local(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !h.AllowRemote && !observer.IsLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next(rw, r)
	}
}

type stateResponse struct {
	Tick    uint64              `json:"tick"`
	Domains []protocol.FrameMsg `json:"domains"`
}

func (h *Handlers) state(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	zones := r.URL.Query().Get("zones") == "1"
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var resp stateResponse
	err := h.Sim.Do(ctx, func(s *sim.Simulation) error {
		resp.Tick = s.CurrentTick()
		resp.Domains = s.Status(zones)
		return nil
	})
	if err != nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrBusy, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (h *Handlers) command(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrProtoBadRequest, err.Error())
		return
	}
	cmd, err := sim.DecodeCommand(body)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	// The audit tick is the tick the command ran in front of, so a replay can
	// apply it at the same boundary.
	var tick uint64
	err = h.Sim.Do(ctx, func(s *sim.Simulation) error {
		tick = s.CurrentTick()
		return cmd.Apply(s)
	})
	h.audit(tick, body, err)
	if err != nil {
		status, code := classify(err)
		writeError(rw, status, code, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "tick": tick})
}

func (h *Handlers) audit(tick uint64, body []byte, err error) {
	if h.Commands == nil {
		return
	}
	var env sim.Envelope
	_ = json.Unmarshal(body, &env)
	result := "ok"
	if err != nil {
		result = err.Error()
	}
	if werr := h.Commands.WriteCommand(persistlog.CommandEntry{
		Tick: tick, Type: env.Type, Body: json.RawMessage(body), Result: result,
	}); werr != nil && h.Log != nil {
		h.Log.Printf("command log: %v", werr)
	}
}

// classify maps simulation errors onto protocol codes.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sim.ErrUnknownDomain):
		return http.StatusNotFound, protocol.ErrDomainNotFound
	case errors.Is(err, sim.ErrUnknownEmitter):
		return http.StatusNotFound, protocol.ErrEmitterNotFound
	case errors.Is(err, sim.ErrDuplicateEmitter):
		return http.StatusConflict, protocol.ErrEmitterExists
	case errors.Is(err, kinds.ErrUnknownKind):
		return http.StatusBadRequest, protocol.ErrUnknownKind
	case errors.Is(err, sim.ErrStopped), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, protocol.ErrBusy
	default:
		return http.StatusBadRequest, protocol.ErrBadRequest
	}
}

func (h *Handlers) snapshot(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Snapshot == nil {
		writeError(rw, http.StatusNotFound, protocol.ErrBadRequest, "snapshots disabled")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	path, tick, err := h.Snapshot(ctx)
	if err != nil {
		writeError(rw, http.StatusServiceUnavailable, protocol.ErrInternal, err.Error())
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"ok": true, "tick": tick, "path": path})
}

func (h *Handlers) cycles(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Index == nil {
		writeError(rw, http.StatusNotFound, protocol.ErrBadRequest, "index disabled")
		return
	}
	q, err := parseCycleQuery(r)
	if err != nil {
		writeError(rw, http.StatusBadRequest, protocol.ErrBadRequest, err.Error())
		return
	}
	recs, err := h.Index.Cycles(r.Context(), q)
	if err != nil {
		writeError(rw, http.StatusInternalServerError, protocol.ErrInternal, err.Error())
		return
	}
	if recs == nil {
		recs = []sim.CycleRecord{}
	}
	writeJSON(rw, http.StatusOK, recs)
}

func parseCycleQuery(r *http.Request) (indexdb.CycleQuery, error) {
	v := r.URL.Query()
	q := indexdb.CycleQuery{
		Domain:  strings.TrimSpace(v.Get("domain")),
		Outcome: strings.ToUpper(strings.TrimSpace(v.Get("outcome"))),
	}
	if s := v.Get("origin"); s != "" {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return q, errors.New("origin must be x,y,z")
		}
		var o [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return q, errors.New("origin must be x,y,z")
			}
			o[i] = n
		}
		q.Origin = &o
	}
	if s := v.Get("since"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return q, errors.New("bad since")
		}
		q.Since = n
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > 10000 {
			return q, errors.New("bad limit")
		}
		q.Limit = n
	}
	return q, nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, code, msg string) {
	writeJSON(rw, status, protocol.NewError(code, msg))
}
