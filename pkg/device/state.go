package device

import (
	"context"
	"fmt"

	"github.com/urmzd/homai-tivo/pkg/player"
)

// Power values in DeviceState.
const (
	PowerOn  = "ON"
	PowerOff = "OFF"
)

// stateMap flattens a player record into the dynamic state map.
func stateMap(s player.State) DeviceState {
	power := PowerOn
	if s.Standby {
		power = PowerOff
	}

	m := DeviceState{
		"power":         power,
		"available":     s.Available,
		"mode":          s.Mode.String(),
		"channel":       s.Channel,
		"qualifier":     s.Qualifier,
		"title":         s.Title,
		"image_url":     s.ImageURL,
		"media_channel": s.MediaChannel(),
	}
	if s.CallSign != "" {
		m["call_sign"] = s.CallSign
	}
	if !s.UpdatedAt.IsZero() {
		m["updated_at"] = s.UpdatedAt
	}
	return m
}

// applyState runs the payload against p in a fixed order: power, channel,
// command. The payload has already passed schema validation.
func applyState(ctx context.Context, p *player.Player, state map[string]any) error {
	if v, ok := state["power"]; ok {
		var err error
		switch v {
		case PowerOn:
			err = p.TurnOn(ctx)
		case PowerOff:
			err = p.TurnOff(ctx)
		default:
			err = fmt.Errorf("%w: power %v", ErrValidation, v)
		}
		if err != nil {
			return err
		}
	}

	if v, ok := state["channel"]; ok {
		ch, _ := v.(string)
		if err := p.SetChannel(ctx, ch); err != nil {
			return err
		}
	}

	if v, ok := state["command"]; ok {
		name, _ := v.(string)
		if err := p.Do(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
