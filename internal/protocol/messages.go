package protocol

// SUBSCRIBE (observer -> server). An empty Domains list means every domain.
// Zones asks for the voxel list of each emitter whose cycle ran that tick.
type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Domains         []string `json:"domains,omitempty"`
	Zones           bool     `json:"zones,omitempty"`
}

// FRAME (server -> observer): one domain at the end of one tick.
type FrameMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	Tick            uint64          `json:"tick"`
	Domain          string          `json:"domain"`
	Emitters        []EmitterStatus `json:"emitters"`
	Claimed         int             `json:"claimed"`
}

type EmitterStatus struct {
	Origin         [3]int  `json:"origin"`
	Kind           string  `json:"kind"`
	Status         string  `json:"status"`
	Radius         int     `json:"radius"`
	ZoneSize       int     `json:"zone_size"`
	EnergyStored   int64   `json:"energy_stored"`
	EnergyCapacity int64   `json:"energy_capacity"`
	GasStored      int64   `json:"gas_stored"`
	GasCapacity    int64   `json:"gas_capacity"`
	EnergyPerTick  float64 `json:"energy_per_tick"`
	GasPerTick     float64 `json:"gas_per_tick"`

	// Set only on ticks where a distribution cycle ran.
	Outcome string   `json:"outcome,omitempty"`
	Zone    [][3]int `json:"zone,omitempty"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, Code: code, Message: message}
}

// BootstrapResponse is served over plain HTTP before an observer subscribes.
type BootstrapResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	TickRateHz      int          `json:"tick_rate_hz"`
	Domains         []DomainInfo `json:"domains"`
}

type DomainInfo struct {
	ID             string  `json:"id"`
	MinY           int     `json:"min_y"`
	MaxY           int     `json:"max_y"`
	NaturalGravity float64 `json:"natural_gravity"`
	Emitters       int     `json:"emitters"`
}
