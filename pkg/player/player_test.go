package player

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homai-tivo/pkg/listings"
	"github.com/urmzd/homai-tivo/pkg/tivo"
)

var fixedNow = time.Date(2026, 10, 19, 20, 15, 0, 0, time.UTC)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tivo.Command
	reply func(cmd tivo.Command) (tivo.Response, error)
}

func (f *fakeSender) Send(_ context.Context, cmd tivo.Command) (tivo.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, cmd)
	if f.reply == nil {
		return tivo.Response{}, nil
	}
	return f.reply(cmd)
}

func (f *fakeSender) Address() string { return "fake:31339" }

func (f *fakeSender) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, c := range f.sent {
		out[i] = c.Line()
	}
	return out
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

func (f *fakeSender) setReply(fn func(cmd tivo.Command) (tivo.Response, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = fn
}

// replyLine answers every command with the same line.
func replyLine(line string) func(tivo.Command) (tivo.Response, error) {
	return func(tivo.Command) (tivo.Response, error) { return tivo.Response{Line: line}, nil }
}

type fakeListings struct {
	callSigns map[string]string
	titles    map[string]string
	images    map[string]string
}

func (l fakeListings) CallSign(ch string) (string, bool) {
	v, ok := l.callSigns[ch]
	return v, ok
}

func (l fakeListings) Title(ch string) (string, bool) {
	v, ok := l.titles[ch]
	return v, ok
}

func (l fakeListings) ImageURL(ch string) string {
	if v, ok := l.images[ch]; ok {
		return v
	}
	return listings.PlaceholderImageURL
}

func newTestPlayer(f *fakeSender, opts ...Option) *Player {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New("den", f, opts...)
}

func TestNew_Placeholders(t *testing.T) {
	p := newTestPlayer(&fakeSender{})
	s := p.State()

	assert.Equal(t, NoChannel, s.Channel)
	assert.Equal(t, NoTitle, s.Title)
	assert.Equal(t, ModeNone, s.Mode)
	assert.Equal(t, listings.PlaceholderImageURL, s.ImageURL)
	assert.False(t, s.Available)
}

func TestRefresh_ParsesStatus(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 LOCAL")}
	p := newTestPlayer(f)

	require.NoError(t, p.Refresh(context.Background()))

	s := p.State()
	assert.Equal(t, "12", s.Channel)
	assert.Equal(t, "LOCAL", s.Qualifier)
	assert.Equal(t, ModeTV, s.Mode)
	assert.Equal(t, "Ch. 12", s.Title)
	assert.Equal(t, listings.PlaceholderImageURL, s.ImageURL)
	assert.True(t, s.Available)
	assert.False(t, s.Standby)
	assert.Equal(t, fixedNow, s.UpdatedAt)
	assert.Equal(t, []string{""}, f.lines(), "status probe is an empty write")
}

func TestRefresh_SubChannel(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 0034 RECORDING")}
	p := newTestPlayer(f)

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, "12.34", p.State().Channel)
	assert.Equal(t, "RECORDING", p.State().Qualifier)
	assert.Equal(t, "RECORDING (12.34)", p.MediaChannel())
}

func TestRefresh_IndeterminateKeepsState(t *testing.T) {
	lines := []string{
		tivo.TimeoutResponse,
		"INVALID",
		"CH_STATUS 0012",
		"LIVETV_READY now ok",
		"",
	}

	for _, line := range lines {
		t.Run(fmt.Sprintf("%q", line), func(t *testing.T) {
			f := &fakeSender{reply: replyLine("CH_STATUS 0645 LOCAL")}
			p := newTestPlayer(f)
			require.NoError(t, p.Refresh(context.Background()))
			before := p.State()

			f.setReply(replyLine(line))
			require.NoError(t, p.Refresh(context.Background()))
			assert.Equal(t, before, p.State())
		})
	}
}

func TestRefresh_UnreachableKeepsDisplay(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0645 LOCAL")}
	p := newTestPlayer(f)
	require.NoError(t, p.Refresh(context.Background()))

	f.setReply(func(tivo.Command) (tivo.Response, error) {
		return tivo.Response{}, fmt.Errorf("%w: connect refused", tivo.ErrUnreachable)
	})
	err := p.Refresh(context.Background())
	require.ErrorIs(t, err, tivo.ErrUnreachable)

	s := p.State()
	assert.False(t, s.Available)
	assert.Equal(t, "645", s.Channel)
	assert.Equal(t, "Ch. 645", s.Title)

	// Next good poll brings it back.
	f.setReply(replyLine("CH_STATUS 0645 LOCAL"))
	require.NoError(t, p.Refresh(context.Background()))
	assert.True(t, p.State().Available)
}

func TestRefresh_ComposesTitleFromListings(t *testing.T) {
	l := fakeListings{
		callSigns: map[string]string{"0012": "WGN", "0007": "WLS", "12.3": "WTTW3"},
		titles:    map[string]string{"0012": "News", "12.3": "Nature"},
		images:    map[string]string{"0012": listings.ImageBaseURL + "p1.jpg"},
	}

	cases := []struct {
		line, title, callSign, image string
	}{
		{"CH_STATUS 0012 LOCAL", "Ch. 12 WGN: News", "WGN", listings.ImageBaseURL + "p1.jpg"},
		{"CH_STATUS 0007 LOCAL", "Ch. 7 WLS", "WLS", listings.PlaceholderImageURL},
		{"CH_STATUS 0099 LOCAL", "Ch. 99", "", listings.PlaceholderImageURL},
		{"CH_STATUS 0012 0003 LOCAL", "Ch. 12.03 WTTW3: Nature", "WTTW3", listings.PlaceholderImageURL},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			p := newTestPlayer(&fakeSender{reply: replyLine(tc.line)}, WithListings(l))
			require.NoError(t, p.Refresh(context.Background()))

			s := p.State()
			assert.Equal(t, tc.title, s.Title)
			assert.Equal(t, tc.callSign, s.CallSign)
			assert.Equal(t, tc.image, s.ImageURL)
		})
	}
}

func TestTurnOff_SendsStandbyTwice(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 LOCAL")}
	p := newTestPlayer(f)
	require.NoError(t, p.Refresh(context.Background()))
	f.reset()

	require.NoError(t, p.TurnOff(context.Background()))
	assert.Equal(t, []string{"IRCODE STANDBY\r", "IRCODE STANDBY\r"}, f.lines())
	assert.True(t, p.State().Standby)

	f.reset()
	require.NoError(t, p.TurnOff(context.Background()))
	assert.Empty(t, f.lines(), "already in standby")
}

func TestTurnOn_SendsStandbyOnce(t *testing.T) {
	f := &fakeSender{}
	p := newTestPlayer(f)

	require.NoError(t, p.TurnOn(context.Background()))
	assert.Empty(t, f.lines(), "not in standby")

	require.NoError(t, p.TurnOff(context.Background()))
	f.reset()

	require.NoError(t, p.TurnOn(context.Background()))
	assert.Equal(t, []string{"IRCODE STANDBY\r"}, f.lines())
	assert.False(t, p.State().Standby)
}

func TestStandby_IgnoresCommands(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 LOCAL")}
	p := newTestPlayer(f)
	require.NoError(t, p.Refresh(context.Background()))
	require.NoError(t, p.TurnOff(context.Background()))
	f.reset()

	ctx := context.Background()
	require.NoError(t, p.Play(ctx))
	require.NoError(t, p.Pause(ctx))
	require.NoError(t, p.Record(ctx))
	require.NoError(t, p.ChannelUp(ctx))
	require.NoError(t, p.NextTrack(ctx))
	require.NoError(t, p.ShowGuide(ctx))
	require.NoError(t, p.SetChannel(ctx, "702"))

	assert.Empty(t, f.lines())
}

func TestStop_NoOpOnLiveTV(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 LOCAL")}
	p := newTestPlayer(f)
	require.NoError(t, p.Refresh(context.Background()))
	f.reset()

	require.NoError(t, p.Stop(context.Background()))
	assert.Empty(t, f.lines())

	require.NoError(t, p.ShowGuide(context.Background()))
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, []string{"TELEPORT GUIDE\r", "IRCODE STOP\r"}, f.lines())
	assert.Equal(t, ModeGuide, p.State().Mode)
}

func TestChannelUp_OnlyInTVMode(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0013 LOCAL")}
	p := newTestPlayer(f)

	require.NoError(t, p.ChannelUp(context.Background()))
	assert.Empty(t, f.lines(), "mode none")

	require.NoError(t, p.Refresh(context.Background()))
	f.reset()

	f.setReply(replyLine("CH_STATUS 0014 LOCAL"))
	require.NoError(t, p.ChannelUp(context.Background()))
	assert.Equal(t, []string{"IRCODE CHANNELUP\r"}, f.lines())
	assert.Equal(t, "14", p.State().Channel, "response applied as status")
}

func TestTrack_DependsOnMode(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 LOCAL")}
	p := newTestPlayer(f)
	ctx := context.Background()

	// Mode none: the step is skipped, the refresh still probes.
	require.NoError(t, p.NextTrack(ctx))
	assert.Equal(t, []string{""}, f.lines())
	assert.Equal(t, ModeTV, p.State().Mode)
	f.reset()

	require.NoError(t, p.PreviousTrack(ctx))
	assert.Equal(t, []string{"IRCODE CHANNELDOWN\r", ""}, f.lines())
	f.reset()

	require.NoError(t, p.ShowNowPlaying(ctx))
	require.NoError(t, p.NextTrack(ctx))
	require.NoError(t, p.ShowNowPlaying(ctx))
	require.NoError(t, p.PreviousTrack(ctx))
	assert.Equal(t, []string{
		"TELEPORT NOWPLAYING\r", "IRCODE FORWARD\r", "",
		"TELEPORT NOWPLAYING\r", "IRCODE REVERSE\r", "",
	}, f.lines())
}

func TestSetChannel(t *testing.T) {
	f := &fakeSender{}
	p := newTestPlayer(f)

	require.NoError(t, p.SetChannel(context.Background(), " 702 "))
	assert.Equal(t, []string{"TELEPORT LIVETV\r", "SETCH 702\r"}, f.lines())
	assert.Equal(t, ModeTV, p.State().Mode)

	assert.ErrorIs(t, p.SetChannel(context.Background(), ""), ErrInvalidChannel)
	assert.ErrorIs(t, p.SetChannel(context.Background(), "7 02"), ErrInvalidChannel)
}

func TestShowModes(t *testing.T) {
	f := &fakeSender{}
	p := newTestPlayer(f)
	ctx := context.Background()

	require.NoError(t, p.ShowMenu(ctx))
	assert.Equal(t, ModeMenu, p.State().Mode)
	require.NoError(t, p.ShowVOD(ctx))
	assert.Equal(t, ModeVideoOnDemand, p.State().Mode)
	require.NoError(t, p.ShowLive(ctx))
	assert.Equal(t, ModeTV, p.State().Mode)

	assert.Equal(t, []string{
		"TELEPORT TIVO\r",
		"KEYBOARD VIDEO_ON_DEMAND\r",
		"TELEPORT LIVETV\r",
	}, f.lines())
}

func TestForceRefresh_Throttled(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0012 LOCAL")}
	p := newTestPlayer(f, WithForceInterval(time.Hour))

	s, err := p.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12", s.Channel)

	f.setReply(replyLine("CH_STATUS 0013 LOCAL"))
	s, err = p.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12", s.Channel)
	assert.Len(t, f.lines(), 1)
}

func TestDo(t *testing.T) {
	f := &fakeSender{}
	p := newTestPlayer(f)

	require.NoError(t, p.Do(context.Background(), CmdPlay))
	assert.Equal(t, []string{"IRCODE PLAY\r"}, f.lines())

	assert.ErrorIs(t, p.Do(context.Background(), "dance"), ErrUnknownCommand)
	assert.Contains(t, Commands(), CmdVideoOnDemand)
}

func TestMode_Text(t *testing.T) {
	b, err := ModeNowPlaying.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "now_playing", string(b))

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("guide")))
	assert.Equal(t, ModeGuide, m)
	assert.Error(t, m.UnmarshalText([]byte("disco")))
}

func TestRefresh_UnchangedStatusKeepsUpdatedAt(t *testing.T) {
	now := fixedNow
	f := &fakeSender{reply: replyLine("CH_STATUS 0702 LOCAL")}
	p := New("den", f, WithClock(func() time.Time { return now }))

	require.NoError(t, p.Refresh(context.Background()))
	first := p.State()

	now = now.Add(10 * time.Second)
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, first, p.State())

	f.setReply(replyLine("CH_STATUS 0703 LOCAL"))
	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, now, p.State().UpdatedAt)
	assert.Equal(t, "703", p.State().Channel)
}

func TestRefresh_CancelledKeepsAvailable(t *testing.T) {
	f := &fakeSender{reply: replyLine("CH_STATUS 0702 LOCAL")}
	p := newTestPlayer(f)
	require.NoError(t, p.Refresh(context.Background()))

	f.setReply(func(tivo.Command) (tivo.Response, error) { return tivo.Response{}, context.Canceled })
	require.ErrorIs(t, p.Refresh(context.Background()), context.Canceled)
	assert.True(t, p.State().Available)
}
