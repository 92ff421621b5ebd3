package reservoir

// Reservoir is the read/extract surface the emitter lifecycle consumes.
type Reservoir interface {
	Stored() int64
	Capacity() int64
	// Extract removes up to amount and returns what was actually removed.
	Extract(amount int64) int64
}

// Spec describes a tank. Zero transfer limits mean unlimited.
type Spec struct {
	Capacity   int64 `yaml:"capacity" json:"capacity"`
	MaxReceive int64 `yaml:"max_receive" json:"max_receive"`
	MaxExtract int64 `yaml:"max_extract" json:"max_extract"`
}

// Tank is a capacity-bounded store. Receive and Drain are the host-facing
// transfer operations and honor the per-tick limits; Extract is the emitter's
// own consumption and is bounded only by what is stored.
type Tank struct {
	spec   Spec
	stored int64

	receivedThisTick int64
	drainedThisTick  int64
}

func NewTank(spec Spec) *Tank {
	if spec.Capacity < 0 {
		spec.Capacity = 0
	}
	return &Tank{spec: spec}
}

func (t *Tank) Spec() Spec      { return t.spec }
func (t *Tank) Stored() int64   { return t.stored }
func (t *Tank) Capacity() int64 { return t.spec.Capacity }

func (t *Tank) Extract(amount int64) int64 {
	if amount <= 0 || t.stored <= 0 {
		return 0
	}
	if amount > t.stored {
		amount = t.stored
	}
	t.stored -= amount
	return amount
}

// Receive accepts up to amount, limited by free space and the per-tick receive
// limit. It returns the accepted amount.
func (t *Tank) Receive(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	room := t.spec.Capacity - t.stored
	if room <= 0 {
		return 0
	}
	if amount > room {
		amount = room
	}
	if t.spec.MaxReceive > 0 {
		left := t.spec.MaxReceive - t.receivedThisTick
		if left <= 0 {
			return 0
		}
		if amount > left {
			amount = left
		}
	}
	t.stored += amount
	t.receivedThisTick += amount
	return amount
}

// Drain removes up to amount for an outside consumer, honoring the per-tick
// extract limit.
func (t *Tank) Drain(amount int64) int64 {
	if t.spec.MaxExtract > 0 {
		left := t.spec.MaxExtract - t.drainedThisTick
		if left <= 0 {
			return 0
		}
		if amount > left {
			amount = left
		}
	}
	n := t.Extract(amount)
	t.drainedThisTick += n
	return n
}

// ResetTick clears the per-tick transfer counters. The domain calls it at the
// start of every tick, before supply.
func (t *Tank) ResetTick() {
	t.receivedThisTick = 0
	t.drainedThisTick = 0
}

// SetStored restores a persisted level, clamped to [0, capacity].
func (t *Tank) SetStored(v int64) {
	if v < 0 {
		v = 0
	}
	if v > t.spec.Capacity {
		v = t.spec.Capacity
	}
	t.stored = v
}

// Fraction is stored/capacity in [0,1].
func (t *Tank) Fraction() float64 {
	if t.spec.Capacity <= 0 {
		return 0
	}
	return float64(t.stored) / float64(t.spec.Capacity)
}
