package mcp

import (
	"encoding/json"
	"time"

	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/listings"
)

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status" jsonschema:"description=Overall health status (healthy or unhealthy)"`
	Controller string `json:"controller" jsonschema:"description=Whether any box answered its last poll"`
	Timestamp  string `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices" jsonschema:"description=Registered set-top boxes"`
	Count   int          `json:"count" jsonschema:"description=Total number of devices"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID                  string          `json:"id" jsonschema:"description=Unique device identifier"`
	Name                string          `json:"name" jsonschema:"description=Display name"`
	Type                string          `json:"type" jsonschema:"description=Device type (media_player)"`
	Protocol            string          `json:"protocol" jsonschema:"description=tcp or serial"`
	Endpoint            string          `json:"endpoint" jsonschema:"description=host:port or serial:path"`
	Manufacturer        string          `json:"manufacturer,omitempty" jsonschema:"description=Device manufacturer"`
	Model               string          `json:"model,omitempty" jsonschema:"description=Device model"`
	UsesListings        bool            `json:"uses_listings" jsonschema:"description=Whether state is enriched from listings"`
	PollIntervalSeconds int             `json:"poll_interval_seconds" jsonschema:"description=Status poll period"`
	StateSchema         json.RawMessage `json:"state_schema,omitempty" jsonschema:"description=JSON Schema for settable state"`
	State               map[string]any  `json:"state,omitempty" jsonschema:"description=Current device state"`
}

// GetDeviceOutput is the output for the get_device and add_device tools
type GetDeviceOutput struct {
	Device DeviceInfo `json:"device" jsonschema:"description=Device information"`
}

// ActionOutput is the output for tools that only report success
type ActionOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the action succeeded"`
	Message string `json:"message" jsonschema:"description=Status message"`
}

// DeviceStateOutput is the output for tools that read or change state
type DeviceStateOutput struct {
	DeviceID string         `json:"device_id" jsonschema:"description=Device identifier"`
	State    map[string]any `json:"state" jsonschema:"description=Device state after the call"`
}

// ListChannelsOutput is the output for the list_channels tool
type ListChannelsOutput struct {
	Channels []listings.Channel `json:"channels" jsonschema:"description=Listings rows ordered by channel"`
	Count    int                `json:"count" jsonschema:"description=Number of channels"`
}

// LookupChannelOutput is the output for the lookup_channel tool
type LookupChannelOutput struct {
	Channel listings.Channel `json:"channel" jsonschema:"description=Listings row"`
}

// ListingsStatusOutput is the output for the refresh_listings tool
type ListingsStatusOutput struct {
	Configured  bool      `json:"configured" jsonschema:"description=Whether a listings account is configured"`
	Channels    int       `json:"channels" jsonschema:"description=Number of channels in the tables"`
	LastRefresh time.Time `json:"last_refresh,omitzero" jsonschema:"description=When the tables were rebuilt"`
}

// DeviceToInfo converts a device.Device to DeviceInfo
func DeviceToInfo(d *device.Device) DeviceInfo {
	return DeviceInfo{
		ID:                  d.ID,
		Name:                d.Name,
		Type:                d.Type,
		Protocol:            d.Protocol,
		Endpoint:            d.Endpoint(),
		Manufacturer:        d.Manufacturer,
		Model:               d.Model,
		UsesListings:        d.UsesListings,
		PollIntervalSeconds: int(d.PollInterval / time.Second),
		StateSchema:         d.StateSchema,
	}
}
