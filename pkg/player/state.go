package player

import (
	"fmt"
	"time"

	"github.com/urmzd/homai-tivo/pkg/listings"
)

// Mode is the screen the box was last sent to.
type Mode int

const (
	ModeNone Mode = iota
	ModeTV
	ModeGuide
	ModeMenu
	ModeNowPlaying
	ModeVideoOnDemand
)

var modeNames = map[Mode]string{
	ModeNone:          "none",
	ModeTV:            "tv",
	ModeGuide:         "guide",
	ModeMenu:          "menu",
	ModeNowPlaying:    "now_playing",
	ModeVideoOnDemand: "video_on_demand",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (m *Mode) UnmarshalText(b []byte) error {
	for k, v := range modeNames {
		if v == string(b) {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", string(b))
}

// Placeholder values shown before the first successful status.
const (
	NoChannel = "no channel"
	NoTitle   = "no title"
	NoStatus  = "no status"
)

// State is the display record for one device.
type State struct {
	Standby   bool      `json:"standby"`
	Available bool      `json:"available"`
	Mode      Mode      `json:"mode"`
	Channel   string    `json:"channel"`
	CallSign  string    `json:"call_sign,omitempty"`
	Qualifier string    `json:"qualifier"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"image_url"`
	// UpdatedAt is when the display record last changed.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

func initialState() State {
	return State{
		Mode:      ModeNone,
		Channel:   NoChannel,
		Qualifier: NoStatus,
		Title:     NoTitle,
		ImageURL:  listings.PlaceholderImageURL,
	}
}

// MediaChannel renders the channel as "<qualifier> (<channel>)".
func (s State) MediaChannel() string {
	return fmt.Sprintf("%s (%s)", s.Qualifier, s.Channel)
}
