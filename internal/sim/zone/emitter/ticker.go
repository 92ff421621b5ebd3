package emitter

import (
	"encoding/json"

	"zonecraft.ai/internal/sim/zone/reservoir"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// Ticker is the payload-agnostic view of an emitter that the host scheduler
// drives. Every *Emitter[P] satisfies it.
type Ticker interface {
	ID() ID
	Kind() string
	Step(tick uint64) (Cycle, bool)
	Remove()
	Removed() bool

	Report() Report
	Zone() []voxel.Pos
	LastCycle() Cycle

	Energy() *reservoir.Tank
	Gas() *reservoir.Tank

	SetManualDisable(bool)
	PayloadJSON() (json.RawMessage, error)
	SetPayloadJSON(json.RawMessage) error

	ExportState() (State, error)
	ImportState(State) error
}

var _ Ticker = (*Emitter[float64])(nil)
