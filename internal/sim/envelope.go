package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"zonecraft.ai/internal/sim/layout"
	"zonecraft.ai/internal/sim/zone/voxel"
)

// Command envelope types, as sent to the admin endpoint.
const (
	CmdPlace   = "place"
	CmdRemove  = "remove"
	CmdDisable = "disable"
	CmdPayload = "payload"
	CmdSupply  = "supply"
	CmdBlock   = "block"
)

var ErrBadCommand = errors.New("bad command")

// Envelope is the JSON form of every command. Fields not used by Type are
// ignored.
type Envelope struct {
	Type     string          `json:"type"`
	Domain   voxel.DomainID  `json:"domain"`
	Origin   voxel.Pos       `json:"origin"`
	Kind     string          `json:"kind,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Disabled bool            `json:"disabled,omitempty"`
	Supply   Supply          `json:"supply"`
	Initial  Supply          `json:"initial"`
	Block    string          `json:"block,omitempty"`
}

// DecodeCommand parses an envelope into the command it names.
func DecodeCommand(raw []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	env.Type = strings.ToLower(strings.TrimSpace(env.Type))
	if env.Domain == "" {
		return nil, fmt.Errorf("%w: missing domain", ErrBadCommand)
	}
	switch env.Type {
	case CmdPlace:
		return PlaceEmitter{
			Domain:   env.Domain,
			Kind:     strings.ToLower(strings.TrimSpace(env.Kind)),
			Origin:   env.Origin,
			Payload:  env.Payload,
			Disabled: env.Disabled,
			Supply:   env.Supply,
			Initial:  env.Initial,
		}, nil
	case CmdRemove:
		return RemoveEmitter{Domain: env.Domain, Origin: env.Origin}, nil
	case CmdDisable:
		return SetDisabled{Domain: env.Domain, Origin: env.Origin, Disabled: env.Disabled}, nil
	case CmdPayload:
		if len(env.Payload) == 0 {
			return nil, fmt.Errorf("%w: missing payload", ErrBadCommand)
		}
		return SetPayload{Domain: env.Domain, Origin: env.Origin, Payload: env.Payload}, nil
	case CmdSupply:
		if env.Supply.Energy < 0 || env.Supply.Gas < 0 {
			return nil, fmt.Errorf("%w: negative supply", ErrBadCommand)
		}
		return SetSupply{Domain: env.Domain, Origin: env.Origin, Supply: env.Supply}, nil
	case CmdBlock:
		b, ok := layout.BlockID(strings.ToLower(strings.TrimSpace(env.Block)))
		if !ok {
			return nil, fmt.Errorf("%w: unknown block %q", ErrBadCommand, env.Block)
		}
		return SetBlock{Domain: env.Domain, Pos: env.Origin, Block: b}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrBadCommand, env.Type)
	}
}
