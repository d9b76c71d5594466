package tivo

import "strings"

// Kind is the command class prefix understood by the remote-control protocol.
type Kind int

const (
	// KindNone sends the bare code (SETCH, FORCECH, status probe).
	KindNone Kind = iota
	KindIRCode
	KindKeyboard
	KindTeleport
)

// String returns the wire token for the kind, or "" for KindNone.
func (k Kind) String() string {
	switch k {
	case KindIRCode:
		return "IRCODE"
	case KindKeyboard:
		return "KEYBOARD"
	case KindTeleport:
		return "TELEPORT"
	default:
		return ""
	}
}

// Command codes known to the device. The list is not exhaustive; any code is
// passed through verbatim.
const (
	CodeLiveTV        = "LIVETV"
	CodeGuide         = "GUIDE"
	CodeTiVo          = "TIVO"
	CodeNowPlaying    = "NOWPLAYING"
	CodeVideoOnDemand = "VIDEO_ON_DEMAND"
	CodeSetChannel    = "SETCH"
	CodeChannelUp     = "CHANNELUP"
	CodeChannelDown   = "CHANNELDOWN"
	CodePlay          = "PLAY"
	CodePause         = "PAUSE"
	CodeStop          = "STOP"
	CodeRecord        = "RECORD"
	CodeReverse       = "REVERSE"
	CodeForward       = "FORWARD"
	CodeStandby       = "STANDBY"
)

// Command is a single request line.
type Command struct {
	Kind  Kind
	Code  string
	Extra string
}

// IRCode returns an IRCODE command for code.
func IRCode(code string) Command {
	return Command{Kind: KindIRCode, Code: code}
}

// Teleport returns a TELEPORT command for code.
func Teleport(code string) Command {
	return Command{Kind: KindTeleport, Code: code}
}

// Probe is the empty command; it makes the device report its status without
// doing anything else.
var Probe = Command{}

// IsProbe reports whether c carries no code.
func (c Command) IsProbe() bool {
	return c.Code == ""
}

// Line renders the command as it is written to the device.
func (c Command) Line() string {
	if c.Code == "" {
		return ""
	}

	var b strings.Builder
	if kind := c.Kind.String(); kind != "" {
		b.WriteString(kind)
		b.WriteByte(' ')
	}
	b.WriteString(c.Code)
	if c.Extra != "" {
		b.WriteByte(' ')
		b.WriteString(c.Extra)
	}
	b.WriteByte('\r')
	return b.String()
}

// Name is a short label used in logs and metrics.
func (c Command) Name() string {
	if c.Code == "" {
		return "status"
	}
	return c.Code
}
