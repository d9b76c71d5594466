package player

import (
	"context"
	"fmt"
	"sort"
)

// Command names accepted by Do.
const (
	CmdPlay          = "play"
	CmdPause         = "pause"
	CmdStop          = "stop"
	CmdRecord        = "record"
	CmdChannelUp     = "channel_up"
	CmdChannelDown   = "channel_down"
	CmdPreviousTrack = "previous_track"
	CmdNextTrack     = "next_track"
	CmdLive          = "live"
	CmdGuide         = "guide"
	CmdMenu          = "menu"
	CmdNowPlaying    = "now_playing"
	CmdVideoOnDemand = "video_on_demand"
	CmdRefresh       = "refresh"
)

var commands = map[string]func(*Player, context.Context) error{
	CmdPlay:          (*Player).Play,
	CmdPause:         (*Player).Pause,
	CmdStop:          (*Player).Stop,
	CmdRecord:        (*Player).Record,
	CmdChannelUp:     (*Player).ChannelUp,
	CmdChannelDown:   (*Player).ChannelDown,
	CmdPreviousTrack: (*Player).PreviousTrack,
	CmdNextTrack:     (*Player).NextTrack,
	CmdLive:          (*Player).ShowLive,
	CmdGuide:         (*Player).ShowGuide,
	CmdMenu:          (*Player).ShowMenu,
	CmdNowPlaying:    (*Player).ShowNowPlaying,
	CmdVideoOnDemand: (*Player).ShowVOD,
	CmdRefresh: func(p *Player, ctx context.Context) error {
		_, err := p.ForceRefresh(ctx)
		return err
	},
}

// Do runs a named command.
func (p *Player) Do(ctx context.Context, name string) error {
	fn, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return fn(p, ctx)
}

// Commands lists the names accepted by Do, sorted.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
