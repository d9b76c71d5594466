package device

import (
	"encoding/json"
	"net"
	"strconv"
	"time"
)

// Device is a set-top box known to the registry.
type Device struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Protocol     string          `json:"protocol"`
	Manufacturer string          `json:"manufacturer"`
	Model        string          `json:"model,omitempty"`
	Host         string          `json:"host,omitempty"`
	Port         int             `json:"port,omitempty"`
	SerialPort   string          `json:"serial_port,omitempty"`
	DeviceIndex  int             `json:"device_index"`
	UsesListings bool            `json:"uses_listings"`
	PollInterval time.Duration   `json:"poll_interval"`
	Debug        bool            `json:"debug"`
	StateSchema  json.RawMessage `json:"state_schema,omitempty"`
}

// Endpoint identifies where the box is reached. Two devices may not share
// one.
func (d Device) Endpoint() string {
	if d.Protocol == ProtocolSerial {
		return "serial:" + d.SerialPort
	}
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// DeviceState is the display record of a device as a dynamic map.
type DeviceState map[string]any

// Event is published when devices or their state change.
type Event struct {
	Type      string      `json:"type"`
	Device    *Device     `json:"device,omitempty"`
	State     DeviceState `json:"state,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Event types
const (
	EventDeviceAdded       = "device_added"
	EventDeviceRemoved     = "device_removed"
	EventDeviceRenamed     = "device_renamed"
	EventStateChanged      = "state_changed"
	EventListingsRefreshed = "listings_refreshed"
)

// Protocol constants
const (
	ProtocolTCP    = "tcp"
	ProtocolSerial = "serial"
)

// Defaults applied by AddDevice.
const (
	DeviceTypeMediaPlayer = "media_player"
	DefaultName           = "TiVo Receiver"
	DefaultManufacturer   = "TiVo"
	DefaultPollInterval   = 10 * time.Second
)

// ListingsStatus summarises the listings tables.
type ListingsStatus struct {
	Configured  bool      `json:"configured"`
	Channels    int       `json:"channels"`
	LastRefresh time.Time `json:"last_refresh,omitzero"`
}
