package sim

import (
	"context"
	"encoding/json"
	"fmt"

	"zonecraft.ai/internal/sim/zone/voxel"
)

// Command is a mutation applied at a tick boundary.
type Command interface {
	Apply(s *Simulation) error
}

type PlaceEmitter struct {
	Domain   voxel.DomainID  `json:"domain"`
	Kind     string          `json:"kind"`
	Origin   voxel.Pos       `json:"origin"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Disabled bool            `json:"disabled,omitempty"`
	Supply   Supply          `json:"supply"`
	Initial  Supply          `json:"initial"`
}

func (c PlaceEmitter) Apply(s *Simulation) error {
	_, err := s.Place(c)
	return err
}

type RemoveEmitter struct {
	Domain voxel.DomainID `json:"domain"`
	Origin voxel.Pos      `json:"origin"`
}

func (c RemoveEmitter) Apply(s *Simulation) error { return s.RemoveEmitter(c.Domain, c.Origin) }

// SetDisabled toggles the manual switch; it takes effect on the emitter's next
// step.
type SetDisabled struct {
	Domain   voxel.DomainID `json:"domain"`
	Origin   voxel.Pos      `json:"origin"`
	Disabled bool           `json:"disabled"`
}

func (c SetDisabled) Apply(s *Simulation) error {
	t, err := s.Emitter(c.Domain, c.Origin)
	if err != nil {
		return err
	}
	t.SetManualDisable(c.Disabled)
	return nil
}

// SetPayload changes an emitter's effect payload; the owned zone picks it up
// on the next committed cycle.
type SetPayload struct {
	Domain  voxel.DomainID  `json:"domain"`
	Origin  voxel.Pos       `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func (c SetPayload) Apply(s *Simulation) error {
	t, err := s.Emitter(c.Domain, c.Origin)
	if err != nil {
		return err
	}
	return t.SetPayloadJSON(c.Payload)
}

type SetSupply struct {
	Domain voxel.DomainID `json:"domain"`
	Origin voxel.Pos      `json:"origin"`
	Supply Supply         `json:"supply"`
}

func (c SetSupply) Apply(s *Simulation) error {
	d, err := s.Domain(c.Domain)
	if err != nil {
		return err
	}
	p := d.byOrigin[c.Origin]
	if p == nil {
		return fmt.Errorf("%w: %s@%s", ErrUnknownEmitter, c.Domain, c.Origin)
	}
	p.supply = c.Supply
	return nil
}

// SetBlock edits terrain. Zones notice on their next distribution cycle.
type SetBlock struct {
	Domain voxel.DomainID `json:"domain"`
	Pos    voxel.Pos      `json:"pos"`
	Block  uint16         `json:"block"`
}

func (c SetBlock) Apply(s *Simulation) error {
	d, err := s.Domain(c.Domain)
	if err != nil {
		return err
	}
	if !d.store.InBounds(c.Pos) {
		return fmt.Errorf("set block %s@%s: outside vertical bounds", c.Domain, c.Pos)
	}
	d.store.SetBlock(c.Pos, c.Block)
	return nil
}

type commandFunc func(*Simulation) error

func (f commandFunc) Apply(s *Simulation) error { return f(s) }

type request struct {
	cmd  Command
	resp chan error
}

// Submit queues cmd for the next tick boundary and waits for its result. It is
// safe to call from any goroutine while Run is active.
func (s *Simulation) Submit(ctx context.Context, cmd Command) error {
	req := request{cmd: cmd, resp: make(chan error, 1)}
	select {
	case s.reqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrStopped
	}
}

// Do runs fn on the loop goroutine at the next tick boundary. Use it to read
// state consistently while Run is active.
func (s *Simulation) Do(ctx context.Context, fn func(*Simulation) error) error {
	return s.Submit(ctx, commandFunc(fn))
}
