package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/listings"
)

// stubController overrides the NullController methods the tools call.
type stubController struct {
	*device.NullController
	box      device.Device
	applied  []map[string]any
	setErr   error
	channels []listings.Channel
}

func newStub() *stubController {
	return &stubController{
		NullController: device.NewNullController(),
		box: device.Device{
			ID: "box-1", Name: "Living Room", Type: device.DeviceTypeMediaPlayer,
			Protocol: device.ProtocolTCP, Host: "192.168.1.20", Port: 31339,
		},
	}
}

func (s *stubController) ListDevices(ctx context.Context) ([]device.Device, error) {
	return []device.Device{s.box}, nil
}

func (s *stubController) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	if id != s.box.ID && id != s.box.Name {
		return nil, device.ErrNotFound
	}
	d := s.box
	return &d, nil
}

func (s *stubController) AddDevice(ctx context.Context, d device.Device) (*device.Device, error) {
	d.ID = "box-2"
	return &d, nil
}

func (s *stubController) GetDeviceState(ctx context.Context, id string) (device.DeviceState, error) {
	return device.DeviceState{"power": device.PowerOn, "channel": "0007"}, nil
}

func (s *stubController) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	if s.setErr != nil {
		return nil, s.setErr
	}
	s.applied = append(s.applied, state)
	return device.DeviceState(state), nil
}

func (s *stubController) LookupChannel(ctx context.Context, ch string) (listings.Channel, error) {
	for _, row := range s.channels {
		if row.Number == listings.ChannelKey(ch) {
			return row, nil
		}
	}
	return listings.Channel{}, device.ErrNotFound
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHealth_Unhealthy(t *testing.T) {
	s := NewServer(newStub())
	res, err := s.handleGetHealth(context.Background(), call(nil))
	require.NoError(t, err)

	var out GetHealthOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, "unhealthy", out.Status)
	assert.Equal(t, "disconnected", out.Controller)
}

func TestListDevices(t *testing.T) {
	s := NewServer(newStub())
	res, err := s.handleListDevices(context.Background(), call(nil))
	require.NoError(t, err)

	var out ListDevicesOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "192.168.1.20:31339", out.Devices[0].Endpoint)
	assert.Equal(t, "0007", out.Devices[0].State["channel"])
}

func TestGetDevice_MissingID(t *testing.T) {
	s := NewServer(newStub())
	res, err := s.handleGetDevice(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), `"id"`)
}

func TestAddDevice(t *testing.T) {
	s := NewServer(newStub())
	res, err := s.handleAddDevice(context.Background(), call(map[string]any{
		"name": "Den", "host": "192.168.1.21", "port": float64(31339), "uses_listings": true,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out GetDeviceOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, "box-2", out.Device.ID)
	assert.Equal(t, "192.168.1.21:31339", out.Device.Endpoint)
	assert.True(t, out.Device.UsesListings)
}

func TestConvenienceTools(t *testing.T) {
	stub := newStub()
	s := NewServer(stub)
	ctx := context.Background()

	_, err := s.handleTurnOn(ctx, call(map[string]any{"id": "box-1"}))
	require.NoError(t, err)
	_, err = s.handleTurnOff(ctx, call(map[string]any{"id": "box-1"}))
	require.NoError(t, err)
	_, err = s.handleSetChannel(ctx, call(map[string]any{"id": "box-1", "channel": "645"}))
	require.NoError(t, err)
	_, err = s.handleSendCommand(ctx, call(map[string]any{"id": "box-1", "command": "guide"}))
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"power": device.PowerOn},
		{"power": device.PowerOff},
		{"channel": "645"},
		{"command": "guide"},
	}, stub.applied)
}

func TestSetDeviceState_NestedAndFlat(t *testing.T) {
	stub := newStub()
	s := NewServer(stub)
	ctx := context.Background()

	_, err := s.handleSetDeviceState(ctx, call(map[string]any{
		"id": "box-1", "state": map[string]any{"command": "play"},
	}))
	require.NoError(t, err)
	_, err = s.handleSetDeviceState(ctx, call(map[string]any{"id": "box-1", "channel": "7"}))
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{{"command": "play"}, {"channel": "7"}}, stub.applied)
}

func TestSetDeviceState_Error(t *testing.T) {
	stub := newStub()
	stub.setErr = fmt.Errorf("%w: command \"dance\"", device.ErrValidation)
	s := NewServer(stub)

	res, err := s.handleSendCommand(context.Background(), call(map[string]any{"id": "box-1", "command": "dance"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "validation error")
}

func TestListings_Unsupported(t *testing.T) {
	s := NewServer(newStub())

	res, err := s.handleListChannels(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleRefreshListings(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestLookupChannel(t *testing.T) {
	stub := newStub()
	stub.channels = []listings.Channel{{Number: "0007", CallSign: "WLS"}}
	s := NewServer(stub)

	res, err := s.handleLookupChannel(context.Background(), call(map[string]any{"channel": "7"}))
	require.NoError(t, err)

	var out LookupChannelOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, "WLS", out.Channel.CallSign)

	res, err = s.handleLookupChannel(context.Background(), call(map[string]any{"channel": "99"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
