package emitter

import (
	"encoding/json"
	"fmt"

	"zonecraft.ai/internal/sim/zone/voxel"
)

// State is everything needed to resume an emitter where it left off.
type State struct {
	ManualDisable  bool            `json:"manual_disable"`
	Active         bool            `json:"active"`
	Radius         int             `json:"radius"`
	LastGrowthTick uint64          `json:"last_growth_tick"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	EnergyStored   int64           `json:"energy_stored"`
	GasStored      int64           `json:"gas_stored"`
	Zone           []voxel.Pos     `json:"zone,omitempty"`
}

func (e *Emitter[P]) ExportState() (State, error) {
	raw, err := e.PayloadJSON()
	if err != nil {
		return State{}, err
	}
	return State{
		ManualDisable:  e.disabled,
		Active:         e.active,
		Radius:         e.radius,
		LastGrowthTick: e.lastGrowth,
		Payload:        raw,
		EnergyStored:   e.energy.Stored(),
		GasStored:      e.gas.Stored(),
		Zone:           e.zone.Sorted(),
	}, nil
}

// ImportState restores a persisted state. It must be called before the first
// Step; a restored active emitter keeps its radius instead of resetting it and
// reclaims its zone. Voxels another emitter already holds are skipped.
func (e *Emitter[P]) ImportState(s State) error {
	if len(s.Payload) > 0 {
		if err := e.SetPayloadJSON(s.Payload); err != nil {
			return err
		}
	}
	e.disabled = s.ManualDisable
	e.active = s.Active
	if s.Radius >= 0 {
		e.radius = s.Radius
	}
	e.lastGrowth = s.LastGrowthTick
	e.energy.SetStored(s.EnergyStored)
	e.gas.SetStored(s.GasStored)
	if e.active && len(s.Zone) > 0 && e.env.Claims != nil {
		granted := e.env.Claims.Claim(e.id.Origin, s.Zone)
		e.zone = voxel.NewSet(granted)
		for _, p := range granted {
			e.kind.Apply(e.id.Domain, p, e.payload)
		}
		e.payloadDirty = false
	}
	switch {
	case e.active:
		e.status = Active
	case e.disabled:
		e.status = Inactive
	default:
		e.status = Standby
	}
	return nil
}

// PayloadJSON and SetPayloadJSON let untyped callers (commands, snapshots)
// reach the typed payload.
func (e *Emitter[P]) PayloadJSON() (json.RawMessage, error) {
	raw, err := json.Marshal(e.payload)
	if err != nil {
		return nil, fmt.Errorf("emitter %s: encode payload: %w", e.id, err)
	}
	return raw, nil
}

func (e *Emitter[P]) SetPayloadJSON(raw json.RawMessage) error {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("emitter %s: decode payload: %w", e.id, err)
	}
	e.SetPayload(p)
	return nil
}
