package device

import (
	"context"

	"github.com/urmzd/homai-tivo/pkg/listings"
)

// NullController is a no-op controller used when no device is configured.
// It lets the API run in limited mode.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) AddDevice(ctx context.Context, d Device) (*Device, error) {
	return nil, ErrNotConnected
}

func (c *NullController) RenameDevice(ctx context.Context, id, newName string) error {
	return ErrNotConnected
}

func (c *NullController) RemoveDevice(ctx context.Context, id string) error {
	return ErrNotConnected
}

func (c *NullController) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) Listings(ctx context.Context) ([]listings.Channel, error) {
	return nil, ErrUnsupported
}

func (c *NullController) LookupChannel(ctx context.Context, ch string) (listings.Channel, error) {
	return listings.Channel{}, ErrUnsupported
}

func (c *NullController) RefreshListings(ctx context.Context) (ListingsStatus, error) {
	return ListingsStatus{}, ErrUnsupported
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber is a no-op event subscriber.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan Event {
	// Never sent to; callers should check IsConnected() on the controller
	return make(chan Event)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan Event) {
	close(ch)
}
