package device

import (
	"context"

	"github.com/urmzd/homai-tivo/pkg/listings"
)

// Controller is the surface the REST API and MCP server drive. Registry is
// the real implementation; NullController stands in when nothing is
// configured.
type Controller interface {
	// ListDevices returns all registered devices
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single device by ID or name
	GetDevice(ctx context.Context, id string) (*Device, error)

	// AddDevice registers a device and starts polling it
	AddDevice(ctx context.Context, d Device) (*Device, error)

	// RenameDevice changes a device's name
	RenameDevice(ctx context.Context, id, newName string) error

	// RemoveDevice stops polling a device and forgets it
	RemoveDevice(ctx context.Context, id string) error

	// GetDeviceState returns the last known display record
	GetDeviceState(ctx context.Context, id string) (DeviceState, error)

	// SetDeviceState applies power, channel and command changes
	SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error)

	// Listings returns every channel in the listings tables
	Listings(ctx context.Context) ([]listings.Channel, error)

	// LookupChannel returns one row of the listings tables
	LookupChannel(ctx context.Context, ch string) (listings.Channel, error)

	// RefreshListings rebuilds the listings tables now
	RefreshListings(ctx context.Context) (ListingsStatus, error)

	// IsConnected returns true if at least one device answered its last poll
	IsConnected() bool

	// Close stops all polling
	Close()
}

// EventSubscriber defines the interface for subscribing to device events
type EventSubscriber interface {
	// Subscribe returns a channel that receives events
	Subscribe() chan Event

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan Event)
}
