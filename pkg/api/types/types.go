package types

import (
	"encoding/json"
	"time"

	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/listings"
)

// --- Request DTOs ---

// AddDeviceRequest is the request body for POST /devices
type AddDeviceRequest struct {
	Name                string `json:"name"`
	Protocol            string `json:"protocol"`
	Host                string `json:"host"`
	Port                int    `json:"port"`
	SerialPort          string `json:"serial_port"`
	DeviceIndex         int    `json:"device_index"`
	UsesListings        bool   `json:"uses_listings"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	Debug               bool   `json:"debug"`
}

// Device converts the request for the controller.
func (r AddDeviceRequest) Device() device.Device {
	return device.Device{
		Name:         r.Name,
		Protocol:     r.Protocol,
		Host:         r.Host,
		Port:         r.Port,
		SerialPort:   r.SerialPort,
		DeviceIndex:  r.DeviceIndex,
		UsesListings: r.UsesListings,
		PollInterval: time.Duration(r.PollIntervalSeconds) * time.Second,
		Debug:        r.Debug,
	}
}

// RenameDeviceRequest is the request body for PATCH /devices/:id
type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	Devices    int       `json:"devices"`
	Available  int       `json:"available"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []DeviceWithState `json:"devices"`
	Count   int               `json:"count"`
}

// DeviceWithState combines device info with current state
type DeviceWithState struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Type                string          `json:"type"`
	Manufacturer        string          `json:"manufacturer"`
	Model               string          `json:"model,omitempty"`
	Protocol            string          `json:"protocol"`
	Endpoint            string          `json:"endpoint"`
	DeviceIndex         int             `json:"device_index"`
	UsesListings        bool            `json:"uses_listings"`
	PollIntervalSeconds int             `json:"poll_interval_seconds"`
	StateSchema         json.RawMessage `json:"state_schema,omitempty"`
	State               map[string]any  `json:"state,omitempty"`
}

// NewDeviceWithState builds the response view of d.
func NewDeviceWithState(d device.Device, state map[string]any) DeviceWithState {
	return DeviceWithState{
		ID:                  d.ID,
		Name:                d.Name,
		Type:                d.Type,
		Manufacturer:        d.Manufacturer,
		Model:               d.Model,
		Protocol:            d.Protocol,
		Endpoint:            d.Endpoint(),
		DeviceIndex:         d.DeviceIndex,
		UsesListings:        d.UsesListings,
		PollIntervalSeconds: int(d.PollInterval / time.Second),
		StateSchema:         d.StateSchema,
		State:               state,
	}
}

// DeviceResponse is returned from GET /devices/:id
type DeviceResponse struct {
	Device DeviceWithState `json:"device"`
}

// StateResponse is returned from GET/POST /devices/:id/state
type StateResponse struct {
	Device    string         `json:"device"`
	State     map[string]any `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// ListChannelsResponse is returned from GET /listings/channels
type ListChannelsResponse struct {
	Channels []listings.Channel `json:"channels"`
	Count    int                `json:"count"`
}

// ChannelResponse is returned from GET /listings/channels/:channel
type ChannelResponse struct {
	Channel listings.Channel `json:"channel"`
}

// ListingsStatusResponse is returned from POST /listings/refresh
type ListingsStatusResponse struct {
	Configured  bool      `json:"configured"`
	Channels    int       `json:"channels"`
	LastRefresh time.Time `json:"last_refresh,omitzero"`
}
