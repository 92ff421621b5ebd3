// Package layout loads domains.yaml: the domains a simulation hosts, the boxes
// that shape their terrain and the emitters placed at startup.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"zonecraft.ai/internal/sim/zone/terrain"
	"zonecraft.ai/internal/sim/zone/voxel"
)

type Config struct {
	Domains []DomainSpec `yaml:"domains"`
}

type DomainSpec struct {
	ID             string        `yaml:"id"`
	MinY           int           `yaml:"min_y"`
	MaxY           int           `yaml:"max_y"`
	NaturalGravity float64       `yaml:"natural_gravity"`
	Boxes          []BoxSpec     `yaml:"boxes,omitempty"`
	Emitters       []EmitterSpec `yaml:"emitters,omitempty"`
}

// BoxSpec edits an axis-aligned box, corners inclusive. Op is one of
// fill, shell or clear.
type BoxSpec struct {
	Op    string `yaml:"op"`
	Block string `yaml:"block"`
	Min   [3]int `yaml:"min"`
	Max   [3]int `yaml:"max"`
}

type EmitterSpec struct {
	Kind     string     `yaml:"kind"`
	Origin   [3]int     `yaml:"origin"`
	Payload  any        `yaml:"payload,omitempty"`
	Disabled bool       `yaml:"disabled"`
	Supply   AmountSpec `yaml:"supply"`
	Initial  AmountSpec `yaml:"initial"`
}

// AmountSpec is an energy/gas pair, used for per-tick supply and initial fill.
type AmountSpec struct {
	Energy int64 `yaml:"energy"`
	Gas    int64 `yaml:"gas"`
}

func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		cfg = defaults()
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("domains.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("domains.yaml: %w", err)
	}
	return cfg, nil
}

// defaults is a single sealed 9x5x9 room with one oxygen emitter on its floor.
func defaults() Config {
	return Config{
		Domains: []DomainSpec{{
			ID:             "station",
			MinY:           -64,
			MaxY:           320,
			NaturalGravity: 1,
			Boxes: []BoxSpec{
				{Op: "shell", Block: "solid", Min: [3]int{-5, 0, -5}, Max: [3]int{5, 6, 5}},
			},
			Emitters: []EmitterSpec{{
				Kind:    "oxygen",
				Origin:  [3]int{0, 1, 0},
				Supply:  AmountSpec{Energy: 50, Gas: 5},
				Initial: AmountSpec{Energy: 10_000, Gas: 1_000},
			}},
		}},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	for i := range c.Domains {
		d := &c.Domains[i]
		d.ID = strings.TrimSpace(d.ID)
		if d.MinY == 0 && d.MaxY == 0 {
			d.MinY, d.MaxY = -64, 320
		}
		if d.NaturalGravity == 0 {
			d.NaturalGravity = 1
		}
		for j := range d.Boxes {
			d.Boxes[j].Op = strings.ToLower(strings.TrimSpace(d.Boxes[j].Op))
			d.Boxes[j].Block = strings.ToLower(strings.TrimSpace(d.Boxes[j].Block))
			if d.Boxes[j].Op == "clear" {
				d.Boxes[j].Block = "air"
			}
			if d.Boxes[j].Block == "" {
				d.Boxes[j].Block = "solid"
			}
		}
		for j := range d.Emitters {
			d.Emitters[j].Kind = strings.ToLower(strings.TrimSpace(d.Emitters[j].Kind))
		}
	}
}

func (c Config) Validate() error {
	if len(c.Domains) == 0 {
		return fmt.Errorf("no domains configured")
	}
	seen := map[string]bool{}
	for _, d := range c.Domains {
		if d.ID == "" {
			return fmt.Errorf("domain id is required")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate domain id: %s", d.ID)
		}
		seen[d.ID] = true
		if d.MaxY <= d.MinY {
			return fmt.Errorf("domain %s: max_y must be > min_y", d.ID)
		}
		for i, b := range d.Boxes {
			switch b.Op {
			case "fill", "shell", "clear":
			default:
				return fmt.Errorf("domain %s box %d: unknown op %q", d.ID, i, b.Op)
			}
			if _, ok := BlockID(b.Block); !ok {
				return fmt.Errorf("domain %s box %d: unknown block %q", d.ID, i, b.Block)
			}
		}
		origins := map[[3]int]bool{}
		for i, e := range d.Emitters {
			if e.Kind == "" {
				return fmt.Errorf("domain %s emitter %d: kind is required", d.ID, i)
			}
			if origins[e.Origin] {
				return fmt.Errorf("domain %s emitter %d: duplicate origin %v", d.ID, i, e.Origin)
			}
			origins[e.Origin] = true
			if e.Origin[1] < d.MinY || e.Origin[1] >= d.MaxY {
				return fmt.Errorf("domain %s emitter %d: origin outside vertical bounds", d.ID, i)
			}
			if e.Supply.Energy < 0 || e.Supply.Gas < 0 || e.Initial.Energy < 0 || e.Initial.Gas < 0 {
				return fmt.Errorf("domain %s emitter %d: amounts must be >= 0", d.ID, i)
			}
		}
	}
	return nil
}

func BlockID(name string) (uint16, bool) {
	switch name {
	case "air":
		return terrain.Air, true
	case "solid":
		return terrain.Solid, true
	case "glass":
		return terrain.Glass, true
	}
	return 0, false
}

// Build creates the domain's terrain by applying its boxes in order.
func (d DomainSpec) Build() *terrain.Store {
	s := terrain.NewStore(d.MinY, d.MaxY)
	for _, b := range d.Boxes {
		block, _ := BlockID(b.Block)
		lo, hi := voxel.FromArray(b.Min), voxel.FromArray(b.Max)
		switch b.Op {
		case "shell":
			s.Shell(lo, hi, block)
		default:
			s.Fill(lo, hi, block)
		}
	}
	return s
}

// PayloadJSON converts the YAML payload into the JSON form emitters decode.
func (e EmitterSpec) PayloadJSON() (json.RawMessage, error) {
	if e.Payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("emitter %s at %v: payload: %w", e.Kind, e.Origin, err)
	}
	return raw, nil
}
