package tivo

import "strings"

const (
	// StatusChannel is the leading token of a channel status report,
	// e.g. "CH_STATUS 0645 LOCAL".
	StatusChannel = "CH_STATUS"

	// StatusInvalid is returned for a rejected SETCH.
	StatusInvalid = "INVALID"

	// StatusNoChannel is what the device says when no live channel is tuned.
	StatusNoChannel = "no_channel"
)

// Status is a parsed status line.
type Status struct {
	Code      string
	Channel   string
	Qualifier string
}

// ParseStatus parses a device response. ok is false when the line does not
// describe a tuned channel; callers must then leave their state untouched.
func ParseStatus(line string) (Status, bool) {
	words := strings.Fields(line)
	if len(words) < 3 || words[0] == StatusNoChannel || words[0] != StatusChannel {
		st := Status{}
		if len(words) > 0 {
			st.Code = words[0]
		}
		return st, false
	}

	st := Status{
		Code:      words[0],
		Qualifier: words[len(words)-1],
	}

	if len(words) == 4 {
		st.Channel = zfill(trimZeros(words[1]), 2) + "." + zfill(trimZeros(words[2]), 2)
	} else {
		st.Channel = trimZeros(words[1])
		if st.Channel == "" {
			st.Channel = "0"
		}
	}

	return st, true
}

func trimZeros(s string) string {
	return strings.TrimLeft(s, "0")
}

// zfill left-pads s with zeros to width.
func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
