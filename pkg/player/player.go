// Package player keeps the display record for one set-top box and turns
// media-player commands into line-protocol requests.
//
// A Player serialises everything behind one mutex: the box cannot take two
// connections at once, and the record must never be updated from two
// responses concurrently.
package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/urmzd/homai-tivo/pkg/listings"
	"github.com/urmzd/homai-tivo/pkg/metrics"
	"github.com/urmzd/homai-tivo/pkg/tivo"
)

// DefaultForceInterval is the minimum spacing of user-triggered refreshes.
const DefaultForceInterval = time.Second

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidChannel = errors.New("invalid channel")
)

// Sender performs one request/response exchange with the box.
type Sender interface {
	Send(ctx context.Context, cmd tivo.Command) (tivo.Response, error)
	Address() string
}

// Listings resolves channel numbers to station and program data.
type Listings interface {
	CallSign(ch string) (string, bool)
	Title(ch string) (string, bool)
	ImageURL(ch string) string
}

// Player owns the state of one device.
type Player struct {
	id       string
	client   Sender
	listings Listings
	limiter  *rate.Limiter
	now      func() time.Time
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Player.
type Option func(*Player)

// WithListings enables call sign and title lookup.
func WithListings(l Listings) Option {
	return func(p *Player) { p.listings = l }
}

// WithForceInterval changes the ForceRefresh throttle.
func WithForceInterval(d time.Duration) Option {
	return func(p *Player) { p.limiter = rate.NewLimiter(rate.Every(d), 1) }
}

// WithClock replaces time.Now for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// WithDebug logs every state change at debug level.
func WithDebug(debug bool) Option {
	return func(p *Player) {
		if debug {
			p.logger = p.logger.Level(zerolog.DebugLevel)
		}
	}
}

// New creates a player for the device id. The state starts with
// placeholders until the first Refresh.
func New(id string, client Sender, opts ...Option) *Player {
	p := &Player{
		id:      id,
		client:  client,
		limiter: rate.NewLimiter(rate.Every(DefaultForceInterval), 1),
		now:     time.Now,
		logger:  log.With().Str("device_id", id).Str("address", client.Address()).Logger(),
		state:   initialState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the device id the player was created for.
func (p *Player) ID() string {
	return p.id
}

// State returns a copy of the current display record.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// MediaChannel returns "<qualifier> (<channel>)" for the current record.
func (p *Player) MediaChannel() string {
	return p.State().MediaChannel()
}

// Refresh probes the box and applies the reply.
func (p *Player) Refresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx)
}

// ForceRefresh is Refresh for user requests. Calls closer together than the
// force interval return the current state without touching the box.
func (p *Player) ForceRefresh(ctx context.Context) (State, error) {
	if !p.limiter.Allow() {
		p.logger.Debug().Msg("Forced refresh throttled")
		return p.State(), nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.refreshLocked(ctx)
	return p.state, err
}

// TurnOn sends a single STANDBY when the box is recorded as in standby.
func (p *Player) TurnOn(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.Standby {
		return nil
	}
	if _, err := p.send(ctx, tivo.IRCode(tivo.CodeStandby)); err != nil {
		return err
	}
	p.state.Standby = false
	p.publish()
	return nil
}

// TurnOff sends STANDBY twice when the box is not recorded as in standby.
// A single STANDBY only toggles the box, so two are needed to be sure of
// landing in standby from an unknown power state.
func (p *Player) TurnOff(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Standby {
		return nil
	}
	for range 2 {
		if _, err := p.send(ctx, tivo.IRCode(tivo.CodeStandby)); err != nil {
			return err
		}
	}
	p.state.Standby = true
	p.publish()
	return nil
}

// Play sends PLAY.
func (p *Player) Play(ctx context.Context) error {
	return p.simple(ctx, tivo.IRCode(tivo.CodePlay))
}

// Pause sends PAUSE.
func (p *Player) Pause(ctx context.Context) error {
	return p.simple(ctx, tivo.IRCode(tivo.CodePause))
}

// Record starts recording the current program.
func (p *Player) Record(ctx context.Context) error {
	return p.simple(ctx, tivo.IRCode(tivo.CodeRecord))
}

// Stop sends STOP unless live TV is showing, where it has no meaning.
func (p *Player) Stop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Standby || p.state.Mode == ModeTV {
		return nil
	}
	_, err := p.send(ctx, tivo.IRCode(tivo.CodeStop))
	return err
}

// ChannelUp steps up one channel while watching live TV.
func (p *Player) ChannelUp(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Standby {
		return nil
	}
	return p.stepLocked(ctx, tivo.CodeChannelUp)
}

// ChannelDown steps down one channel while watching live TV.
func (p *Player) ChannelDown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Standby {
		return nil
	}
	return p.stepLocked(ctx, tivo.CodeChannelDown)
}

// PreviousTrack changes channel down on live TV and rewinds elsewhere.
func (p *Player) PreviousTrack(ctx context.Context) error {
	return p.track(ctx, tivo.CodeChannelDown, tivo.CodeReverse)
}

// NextTrack changes channel up on live TV and fast-forwards elsewhere.
func (p *Player) NextTrack(ctx context.Context) error {
	return p.track(ctx, tivo.CodeChannelUp, tivo.CodeForward)
}

// SetChannel teleports to live TV and tunes ch.
func (p *Player) SetChannel(ctx context.Context, ch string) error {
	ch = strings.TrimSpace(ch)
	if ch == "" || strings.ContainsAny(ch, " \r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, ch)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Standby {
		return nil
	}
	if _, err := p.send(ctx, tivo.Teleport(tivo.CodeLiveTV)); err != nil {
		return err
	}
	p.setModeLocked(ModeTV)

	_, err := p.send(ctx, tivo.Command{Kind: tivo.KindNone, Code: tivo.CodeSetChannel, Extra: ch})
	return err
}

// ShowLive teleports to live TV.
func (p *Player) ShowLive(ctx context.Context) error {
	return p.show(ctx, tivo.Teleport(tivo.CodeLiveTV), ModeTV)
}

// ShowGuide teleports to the program guide.
func (p *Player) ShowGuide(ctx context.Context) error {
	return p.show(ctx, tivo.Teleport(tivo.CodeGuide), ModeGuide)
}

// ShowMenu teleports to the main menu.
func (p *Player) ShowMenu(ctx context.Context) error {
	return p.show(ctx, tivo.Teleport(tivo.CodeTiVo), ModeMenu)
}

// ShowNowPlaying teleports to the recordings list.
func (p *Player) ShowNowPlaying(ctx context.Context) error {
	return p.show(ctx, tivo.Teleport(tivo.CodeNowPlaying), ModeNowPlaying)
}

// ShowVOD opens video on demand. The box only accepts it as a KEYBOARD code.
func (p *Player) ShowVOD(ctx context.Context) error {
	return p.show(ctx, tivo.Command{Kind: tivo.KindKeyboard, Code: tivo.CodeVideoOnDemand}, ModeVideoOnDemand)
}

func (p *Player) simple(ctx context.Context, cmd tivo.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Standby {
		return nil
	}
	_, err := p.send(ctx, cmd)
	return err
}

func (p *Player) show(ctx context.Context, cmd tivo.Command, mode Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Standby {
		return nil
	}
	if _, err := p.send(ctx, cmd); err != nil {
		return err
	}
	p.setModeLocked(mode)
	return nil
}

func (p *Player) track(ctx context.Context, channelCode, transportCode string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Standby {
		return nil
	}

	var err error
	if p.state.Mode == ModeTV || p.state.Mode == ModeNone {
		err = p.stepLocked(ctx, channelCode)
	} else {
		_, err = p.send(ctx, tivo.IRCode(transportCode))
	}
	if err != nil {
		return err
	}
	return p.refreshLocked(ctx)
}

// stepLocked sends a channel step and applies the status it answers with.
// Outside live TV the step is ignored.
func (p *Player) stepLocked(ctx context.Context, code string) error {
	if p.state.Mode != ModeTV {
		return nil
	}
	resp, err := p.send(ctx, tivo.IRCode(code))
	if err != nil {
		return err
	}
	p.apply(resp)
	return nil
}

func (p *Player) refreshLocked(ctx context.Context) error {
	resp, err := p.send(ctx, tivo.Probe)
	if err != nil {
		return err
	}
	p.apply(resp)
	return nil
}

// send performs one exchange and tracks reachability. Callers hold mu.
func (p *Player) send(ctx context.Context, cmd tivo.Command) (tivo.Response, error) {
	start := time.Now()
	resp, err := p.client.Send(ctx, cmd)
	metrics.ObserveCommand(p.id, cmd.Name(), time.Since(start), err)

	if errors.Is(err, tivo.ErrUnreachable) {
		if p.state.Available {
			p.logger.Warn().Err(err).Msg("Device unreachable")
		}
		p.state.Available = false
		p.publish()
	}
	return resp, err
}

// apply folds a status reply into the record. An indeterminate reply only
// marks the device reachable; everything else is kept as last known.
func (p *Player) apply(resp tivo.Response) {
	status, ok := tivo.ParseStatus(resp.Line)
	p.state.Available = true

	if !ok {
		p.logger.Debug().
			Str("response", resp.Line).
			Bool("timed_out", resp.TimedOut).
			Msg("Indeterminate status, keeping last known state")
		p.publish()
		return
	}

	next := p.compose(status)
	next.UpdatedAt = p.state.UpdatedAt
	if next != p.state {
		next.UpdatedAt = p.now()
	}
	p.state = next
	p.publish()

	p.logger.Debug().
		Str("channel", p.state.Channel).
		Str("call_sign", p.state.CallSign).
		Str("title", p.state.Title).
		Msg("Status updated")
}

// compose builds a fresh record from a parsed status. UpdatedAt is left
// to the caller.
func (p *Player) compose(status tivo.Status) State {
	num := strings.TrimLeft(status.Channel, "0")
	if num == "" {
		num = status.Channel
	}

	s := State{
		Available: true,
		Mode:      ModeTV,
		Channel:   status.Channel,
		Qualifier: status.Qualifier,
		Title:     "Ch. " + num,
		ImageURL:  listings.PlaceholderImageURL,
	}
	if p.listings == nil {
		return s
	}

	key := listingsKey(status.Channel)
	s.ImageURL = p.listings.ImageURL(key)
	if cs, ok := p.listings.CallSign(key); ok {
		s.CallSign = cs
		s.Title = fmt.Sprintf("Ch. %s %s", num, cs)
		if title, ok := p.listings.Title(key); ok {
			s.Title = fmt.Sprintf("Ch. %s %s: %s", num, cs, title)
		}
	}
	return s
}

func (p *Player) setModeLocked(m Mode) {
	if p.state.Mode == m {
		return
	}
	p.logger.Debug().Stringer("mode", m).Msg("Mode changed")
	p.state.Mode = m
}

func (p *Player) publish() {
	metrics.SetDeviceState(p.id, p.state.Available, p.state.Standby)
}

// listingsKey maps a device channel to the listings key. The device pads a
// sub-channel to "12.03" while the grid reports "12.3".
func listingsKey(ch string) string {
	major, minor, ok := strings.Cut(ch, ".")
	if !ok {
		return listings.ChannelKey(ch)
	}
	major = strings.TrimLeft(major, "0")
	minor = strings.TrimLeft(minor, "0")
	if minor == "" {
		minor = "0"
	}
	return listings.ChannelKey(major + "." + minor)
}
