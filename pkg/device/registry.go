package device

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/homai-tivo/pkg/device/schema"
	"github.com/urmzd/homai-tivo/pkg/listings"
	"github.com/urmzd/homai-tivo/pkg/metrics"
	"github.com/urmzd/homai-tivo/pkg/player"
	"github.com/urmzd/homai-tivo/pkg/poller"
	"github.com/urmzd/homai-tivo/pkg/tivo"
)

// DefaultListingsInterval is how often the listings tables are rebuilt.
const DefaultListingsInterval = 300 * time.Second

const (
	listingsLoop  = "listings"
	subscriberBuf = 16
)

// Store persists registry changes. Registry works without one.
type Store interface {
	SaveDevice(ctx context.Context, d Device) error
	DeleteDevice(ctx context.Context, id string) error
}

// DialerFunc builds the transport for a device.
type DialerFunc func(d Device) (tivo.Dialer, error)

type entry struct {
	device Device
	player *player.Player
}

// Registry owns the players for every configured device and the shared
// listings client. It replaces any process-wide list of known devices: the
// API and MCP layers receive it explicitly.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	closed  bool

	group     *poller.Group
	cancel    context.CancelFunc
	store     Store
	validator *schema.Validator
	dialer    DialerFunc
	tivoOpts  []tivo.Option

	listings         *listings.Client
	listingsInterval time.Duration

	subMu       sync.Mutex
	subscribers map[chan Event]struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStore persists adds, renames and removals.
func WithStore(s Store) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// WithListings shares c with every device that uses listings and refreshes
// it every interval.
func WithListings(c *listings.Client, interval time.Duration) RegistryOption {
	return func(r *Registry) {
		r.listings = c
		if interval > 0 {
			r.listingsInterval = interval
		}
	}
}

// WithValidator replaces the schema validator.
func WithValidator(v *schema.Validator) RegistryOption {
	return func(r *Registry) { r.validator = v }
}

// WithDialer replaces the transport factory.
func WithDialer(fn DialerFunc) RegistryOption {
	return func(r *Registry) { r.dialer = fn }
}

// WithTivoOptions are applied to every device client.
func WithTivoOptions(opts ...tivo.Option) RegistryOption {
	return func(r *Registry) { r.tivoOpts = append(r.tivoOpts, opts...) }
}

// NewRegistry creates an empty registry. Poll loops run until ctx is
// cancelled or Close is called.
func NewRegistry(ctx context.Context, opts ...RegistryOption) *Registry {
	ctx, cancel := context.WithCancel(ctx)
	r := &Registry{
		entries:          map[string]*entry{},
		group:            poller.NewGroup(ctx),
		cancel:           cancel,
		validator:        schema.NewValidator(),
		dialer:           DialerFor,
		listingsInterval: DefaultListingsInterval,
		subscribers:      map[chan Event]struct{}{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.listings != nil {
		r.group.Go(poller.Loop{
			Name:     listingsLoop,
			Interval: r.listingsInterval,
			Run: func(ctx context.Context) error {
				_, err := r.refreshListings(ctx)
				return err
			},
		})
	}
	return r
}

// DialerFor builds the default transport for d.
func DialerFor(d Device) (tivo.Dialer, error) {
	switch d.Protocol {
	case ProtocolTCP:
		return tivo.NewTCPDialer(d.Host, d.Port, tivo.DefaultConnectTimeout), nil
	case ProtocolSerial:
		return tivo.NewSerialDialer(d.SerialPort), nil
	default:
		return nil, fmt.Errorf("%w: unknown protocol %q", ErrValidation, d.Protocol)
	}
}

// Load registers devices read from configuration without writing them back
// to the store.
func (r *Registry) Load(ctx context.Context, devices []Device) error {
	var errs []error
	for _, d := range devices {
		if _, err := r.register(d); err != nil {
			errs = append(errs, fmt.Errorf("device %q: %w", d.Name, err))
		}
	}
	return errors.Join(errs...)
}

// ListDevices returns all devices ordered by name.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.device)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetDevice looks a device up by ID, then by name.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, err := r.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	d := e.device
	return &d, nil
}

// AddDevice validates d, fills defaults, persists it and starts polling.
func (r *Registry) AddDevice(ctx context.Context, d Device) (*Device, error) {
	added, err := r.register(d)
	if err != nil {
		return nil, err
	}

	if r.store != nil {
		if err := r.store.SaveDevice(ctx, *added); err != nil {
			r.unregister(added.ID)
			return nil, fmt.Errorf("save device: %w", err)
		}
	}

	log.Info().Str("device_id", added.ID).Str("name", added.Name).Str("endpoint", added.Endpoint()).Msg("Device added")
	r.publish(Event{Type: EventDeviceAdded, Device: added, Timestamp: time.Now()})
	return added, nil
}

// RenameDevice changes a device's name.
func (r *Registry) RenameDevice(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	r.mu.Lock()
	e, err := r.lookupLocked(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	for _, other := range r.entries {
		if other != e && other.device.Name == newName {
			r.mu.Unlock()
			return fmt.Errorf("%w: name %q in use", ErrConflict, newName)
		}
	}
	prev := e.device
	e.device.Name = newName
	renamed := e.device
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveDevice(ctx, renamed); err != nil {
			r.mu.Lock()
			e.device = prev
			r.mu.Unlock()
			return fmt.Errorf("save device: %w", err)
		}
	}

	r.publish(Event{Type: EventDeviceRenamed, Device: &renamed, Timestamp: time.Now()})
	return nil
}

// RemoveDevice stops polling a device and forgets it.
func (r *Registry) RemoveDevice(ctx context.Context, id string) error {
	d, err := r.GetDevice(ctx, id)
	if err != nil {
		return err
	}

	if r.store != nil {
		if err := r.store.DeleteDevice(ctx, d.ID); err != nil {
			return fmt.Errorf("delete device: %w", err)
		}
	}

	r.unregister(d.ID)
	log.Info().Str("device_id", d.ID).Str("name", d.Name).Msg("Device removed")
	r.publish(Event{Type: EventDeviceRemoved, Device: d, Timestamp: time.Now()})
	return nil
}

// GetDeviceState returns the last polled display record.
func (r *Registry) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	p, _, err := r.player(id)
	if err != nil {
		return nil, err
	}
	return stateMap(p.State()), nil
}

// SetDeviceState validates the payload against the media player schema and
// applies it in order: power, channel, command.
func (r *Registry) SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error) {
	p, d, err := r.player(id)
	if err != nil {
		return nil, err
	}
	if err := r.validator.Validate(d.StateSchema, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := applyState(ctx, p, state); err != nil {
		return nil, translate(err)
	}
	return stateMap(p.State()), nil
}

// Listings returns every channel in the listings tables.
func (r *Registry) Listings(ctx context.Context) ([]listings.Channel, error) {
	if r.listings == nil {
		return nil, fmt.Errorf("%w: no listings account configured", ErrUnsupported)
	}
	return r.listings.Channels(), nil
}

// LookupChannel returns one row of the listings tables.
func (r *Registry) LookupChannel(ctx context.Context, ch string) (listings.Channel, error) {
	if r.listings == nil {
		return listings.Channel{}, fmt.Errorf("%w: no listings account configured", ErrUnsupported)
	}
	row, ok := r.listings.Lookup(ch)
	if !ok {
		return listings.Channel{}, fmt.Errorf("%w: channel %s", ErrNotFound, ch)
	}
	return row, nil
}

// RefreshListings rebuilds the listings tables now.
func (r *Registry) RefreshListings(ctx context.Context) (ListingsStatus, error) {
	if r.listings == nil {
		return ListingsStatus{}, fmt.Errorf("%w: no listings account configured", ErrUnsupported)
	}
	return r.refreshListings(ctx)
}

// IsConnected reports whether any device answered its last poll.
func (r *Registry) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}
	for _, e := range r.entries {
		if e.player.State().Available {
			return true
		}
	}
	return false
}

// Close stops every poll loop and closes subscriber channels.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.cancel()
	r.mu.Unlock()

	// Loops take r.mu on their way out, so wait without holding it.
	r.group.Wait()

	r.subMu.Lock()
	for ch := range r.subscribers {
		close(ch)
		delete(r.subscribers, ch)
	}
	r.subMu.Unlock()
}

// Subscribe returns a channel of registry events. Slow subscribers miss
// events rather than stall polling.
func (r *Registry) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuf)
	r.subMu.Lock()
	r.subscribers[ch] = struct{}{}
	r.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription.
func (r *Registry) Unsubscribe(ch chan Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subscribers[ch]; ok {
		delete(r.subscribers, ch)
		close(ch)
	}
}

func (r *Registry) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// register validates d and starts its poll loop.
func (r *Registry) register(d Device) (*Device, error) {
	d, err := normalize(d)
	if err != nil {
		return nil, err
	}

	dialer, err := r.dialer(d)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrNotConnected
	}
	for _, e := range r.entries {
		switch {
		case e.device.ID == d.ID:
			return nil, fmt.Errorf("%w: id %s", ErrConflict, d.ID)
		case e.device.Name == d.Name:
			return nil, fmt.Errorf("%w: name %q in use", ErrConflict, d.Name)
		case e.device.Endpoint() == d.Endpoint():
			return nil, fmt.Errorf("%w: %s is already registered as %q", ErrConflict, d.Endpoint(), e.device.Name)
		}
	}

	tivoOpts := append(append([]tivo.Option(nil), r.tivoOpts...), tivo.WithDebug(d.Debug))
	playerOpts := []player.Option{player.WithDebug(d.Debug)}
	if d.UsesListings && r.listings != nil {
		playerOpts = append(playerOpts, player.WithListings(r.listings))
	}
	p := player.New(d.ID, tivo.NewClient(dialer, tivoOpts...), playerOpts...)

	e := &entry{device: d, player: p}
	r.entries[d.ID] = e
	r.group.Go(r.pollLoop(e))

	out := d
	return &out, nil
}

func (r *Registry) unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.group.Stop(id)
	delete(r.entries, id)
	metrics.ForgetDevice(id)
}

func (r *Registry) pollLoop(e *entry) poller.Loop {
	id := e.device.ID
	return poller.Loop{
		Name:     id,
		Interval: e.device.PollInterval,
		Run: func(ctx context.Context) error {
			before := e.player.State()
			err := e.player.Refresh(ctx)
			after := e.player.State()
			if after != before {
				d, gerr := r.GetDevice(ctx, id)
				if gerr == nil {
					r.publish(Event{Type: EventStateChanged, Device: d, State: stateMap(after), Timestamp: time.Now()})
				}
			}
			return err
		},
	}
}

func (r *Registry) refreshListings(ctx context.Context) (ListingsStatus, error) {
	err := r.listings.Refresh(ctx)
	status := ListingsStatus{
		Configured:  true,
		Channels:    r.listings.Len(),
		LastRefresh: r.listings.LastRefresh(),
	}
	metrics.ListingsRefreshed(status.Channels, status.LastRefresh, err)
	if err != nil {
		return status, translate(err)
	}
	r.publish(Event{Type: EventListingsRefreshed, Timestamp: time.Now()})
	return status, nil
}

func (r *Registry) player(id string) (*player.Player, Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, err := r.lookupLocked(id)
	if err != nil {
		return nil, Device{}, err
	}
	return e.player, e.device, nil
}

func (r *Registry) lookupLocked(id string) (*entry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	for _, e := range r.entries {
		if e.device.Name == id {
			return e, nil
		}
	}
	return nil, ErrNotFound
}

// normalize fills defaults and rejects incomplete devices.
func normalize(d Device) (Device, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Host = strings.TrimSpace(d.Host)

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Name == "" {
		d.Name = DefaultName
	}
	if d.Type == "" {
		d.Type = DeviceTypeMediaPlayer
	}
	if d.Manufacturer == "" {
		d.Manufacturer = DefaultManufacturer
	}
	if d.Protocol == "" {
		d.Protocol = ProtocolTCP
	}
	if d.PollInterval <= 0 {
		d.PollInterval = DefaultPollInterval
	}
	if len(d.StateSchema) == 0 {
		d.StateSchema = schema.MediaPlayer()
	}

	switch d.Protocol {
	case ProtocolTCP:
		if d.Host == "" {
			return d, fmt.Errorf("%w: host is required", ErrValidation)
		}
		if d.Port == 0 {
			d.Port = tivo.DefaultPort
		}
		if d.Port < 0 || d.Port > 65535 {
			return d, fmt.Errorf("%w: port %d out of range", ErrValidation, d.Port)
		}
	case ProtocolSerial:
		if d.SerialPort == "" {
			return d, fmt.Errorf("%w: serial_port is required", ErrValidation)
		}
	default:
		return d, fmt.Errorf("%w: unknown protocol %q", ErrValidation, d.Protocol)
	}
	return d, nil
}

// translate maps lower-level errors onto the controller's sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, player.ErrUnknownCommand), errors.Is(err, player.ErrInvalidChannel):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, listings.ErrAuth), errors.Is(err, listings.ErrUpstreamShape):
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	default:
		return err
	}
}
