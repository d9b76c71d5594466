package tivo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus_MajorOnly(t *testing.T) {
	st, ok := ParseStatus("CH_STATUS 0012 LOCAL")
	assert.True(t, ok)
	assert.Equal(t, "12", st.Channel)
	assert.Equal(t, "LOCAL", st.Qualifier)
	assert.Equal(t, StatusChannel, st.Code)
}

func TestParseStatus_SubChannel(t *testing.T) {
	st, ok := ParseStatus("CH_STATUS 0012 0034 RECORDING")
	assert.True(t, ok)
	assert.Equal(t, "12.34", st.Channel)
	assert.Equal(t, "RECORDING", st.Qualifier)
}

func TestParseStatus_SubChannelPadding(t *testing.T) {
	st, ok := ParseStatus("CH_STATUS 0005 0001 LOCAL")
	assert.True(t, ok)
	assert.Equal(t, "05.01", st.Channel)
}

func TestParseStatus_StripsLeadingZeros(t *testing.T) {
	cases := map[string]string{
		"CH_STATUS 0645 LOCAL":     "645",
		"CH_STATUS 1002 RECORDING": "1002",
		"CH_STATUS 7 LOCAL":        "7",
		"CH_STATUS 0000 LOCAL":     "0",
	}
	for line, want := range cases {
		st, ok := ParseStatus(line)
		if assert.True(t, ok, line) {
			assert.Equal(t, want, st.Channel, line)
		}
	}
}

func TestParseStatus_TrailingCarriageReturn(t *testing.T) {
	st, ok := ParseStatus("CH_STATUS 0702 LOCAL\r\n")
	assert.True(t, ok)
	assert.Equal(t, "702", st.Channel)
	assert.Equal(t, "LOCAL", st.Qualifier)
}

func TestParseStatus_Indeterminate(t *testing.T) {
	lines := []string{
		"",
		"no_channel Video",
		TimeoutResponse,
		"CH_STATUS 0012",
		"LIVETV_READY",
		"INVALID CHANNEL 9999",
		"no_channel 0012 LOCAL",
	}
	for _, line := range lines {
		_, ok := ParseStatus(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestParseStatus_InvalidCodeSurfaced(t *testing.T) {
	st, ok := ParseStatus("INVALID CHANNEL 9999")
	assert.False(t, ok)
	assert.Equal(t, StatusInvalid, st.Code)
}

func TestCommandLine(t *testing.T) {
	cases := []struct {
		cmd  Command
		want string
	}{
		{Probe, ""},
		{IRCode(CodeStandby), "IRCODE STANDBY\r"},
		{Teleport(CodeGuide), "TELEPORT GUIDE\r"},
		{Command{Kind: KindKeyboard, Code: CodeVideoOnDemand}, "KEYBOARD VIDEO_ON_DEMAND\r"},
		{Command{Kind: KindNone, Code: CodeSetChannel, Extra: "702"}, "SETCH 702\r"},
		{Command{Kind: KindIRCode, Code: CodeSetChannel, Extra: "12"}, "IRCODE SETCH 12\r"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.cmd.Line())
	}
}
