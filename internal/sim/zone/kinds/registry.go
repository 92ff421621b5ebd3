package kinds

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"zonecraft.ai/internal/sim/zone/effects"
	"zonecraft.ai/internal/sim/zone/emitter"
	"zonecraft.ai/internal/sim/zone/reservoir"
)

var (
	ErrUnknownKind   = errors.New("unknown emitter kind")
	ErrDuplicateKind = errors.New("emitter kind already registered")
)

// Spec is the per-placement configuration handed to a factory.
type Spec struct {
	Params  emitter.Params
	Energy  reservoir.Spec
	Gas     reservoir.Spec
	Payload json.RawMessage
}

// Factory builds an emitter of one kind.
type Factory func(id emitter.ID, env emitter.Env, spec Spec) (emitter.Ticker, error)

// Registry maps kind names to factories. Kinds are registered once at startup
// and resolved when an emitter is placed; nothing is looked up per tick.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("register kind %q: empty name or factory", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) Resolve(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	return f, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Typed adapts a Kind into a Factory. defaultPayload is used when the spec
// carries none.
func Typed[P any](kind emitter.Kind[P], defaultPayload P) Factory {
	return func(id emitter.ID, env emitter.Env, spec Spec) (emitter.Ticker, error) {
		e := emitter.New[P](id, kind, spec.Params, env, spec.Energy, spec.Gas, defaultPayload)
		if len(spec.Payload) > 0 {
			if err := e.SetPayloadJSON(spec.Payload); err != nil {
				return nil, err
			}
		}
		return e, nil
	}
}

// Effects bundles the effect fields of the built-in kinds.
type Effects struct {
	Oxygen  *Oxygen
	Gravity *Gravity
}

// Builtin registers the oxygen and gravity kinds with the given per-voxel costs.
func Builtin(costs map[string]emitter.Costs) (*Registry, *Effects, error) {
	fx := &Effects{
		Oxygen:  NewOxygen(effects.NewField[Air](), costs[OxygenName]),
		Gravity: NewGravity(effects.NewField[float64](), costs[GravityName]),
	}
	r := NewRegistry()
	if err := r.Register(OxygenName, Typed[Air](fx.Oxygen, Air{})); err != nil {
		return nil, nil, err
	}
	if err := r.Register(GravityName, Typed[float64](fx.Gravity, 1.0)); err != nil {
		return nil, nil, err
	}
	return r, fx, nil
}
