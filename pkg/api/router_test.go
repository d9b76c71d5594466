package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homai-tivo/pkg/api/types"
	"github.com/urmzd/homai-tivo/pkg/device"
	"github.com/urmzd/homai-tivo/pkg/listings"
)

// stubController keeps devices in memory and records the last state payload.
type stubController struct {
	mu        sync.Mutex
	devices   map[string]device.Device
	lastState map[string]any
	setErr    error
	listings  []listings.Channel
	connected bool
	subs      []chan device.Event
}

func newStub() *stubController {
	return &stubController{
		devices: map[string]device.Device{
			"box-1": {
				ID: "box-1", Name: "Living Room", Type: device.DeviceTypeMediaPlayer,
				Protocol: device.ProtocolTCP, Host: "192.168.1.20", Port: 31339,
				Manufacturer: device.DefaultManufacturer, PollInterval: 10 * time.Second,
			},
		},
	}
}

func (s *stubController) find(id string) (device.Device, bool) {
	if d, ok := s.devices[id]; ok {
		return d, true
	}
	for _, d := range s.devices {
		if d.Name == id {
			return d, true
		}
	}
	return device.Device{}, false
}

func (s *stubController) ListDevices(ctx context.Context) ([]device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []device.Device
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out, nil
}

func (s *stubController) GetDevice(ctx context.Context, id string) (*device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.find(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	return &d, nil
}

func (s *stubController) AddDevice(ctx context.Context, d device.Device) (*device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Host == "" && d.SerialPort == "" {
		return nil, fmt.Errorf("%w: host is required", device.ErrValidation)
	}
	for _, other := range s.devices {
		if other.Name == d.Name {
			return nil, fmt.Errorf("%w: name %q in use", device.ErrConflict, d.Name)
		}
	}
	d.ID = fmt.Sprintf("box-%d", len(s.devices)+1)
	s.devices[d.ID] = d
	return &d, nil
}

func (s *stubController) RenameDevice(ctx context.Context, id, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.find(id)
	if !ok {
		return device.ErrNotFound
	}
	d.Name = newName
	s.devices[d.ID] = d
	return nil
}

func (s *stubController) RemoveDevice(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.find(id)
	if !ok {
		return device.ErrNotFound
	}
	delete(s.devices, d.ID)
	return nil
}

func (s *stubController) GetDeviceState(ctx context.Context, id string) (device.DeviceState, error) {
	return device.DeviceState{"power": "ON", "channel": "0007"}, nil
}

func (s *stubController) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return nil, s.setErr
	}
	s.lastState = state
	return device.DeviceState{"power": "ON", "channel": state["channel"]}, nil
}

func (s *stubController) Listings(ctx context.Context) ([]listings.Channel, error) {
	if s.listings == nil {
		return nil, device.ErrUnsupported
	}
	return s.listings, nil
}

func (s *stubController) LookupChannel(ctx context.Context, ch string) (listings.Channel, error) {
	if s.listings == nil {
		return listings.Channel{}, device.ErrUnsupported
	}
	key := listings.ChannelKey(ch)
	for _, row := range s.listings {
		if row.Number == key {
			return row, nil
		}
	}
	return listings.Channel{}, device.ErrNotFound
}

func (s *stubController) RefreshListings(ctx context.Context) (device.ListingsStatus, error) {
	if s.listings == nil {
		return device.ListingsStatus{}, device.ErrUnsupported
	}
	return device.ListingsStatus{Configured: true, Channels: len(s.listings)}, nil
}

func (s *stubController) IsConnected() bool { return s.connected }
func (s *stubController) Close()            {}

func (s *stubController) Subscribe() chan device.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan device.Event, 4)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *stubController) Unsubscribe(ch chan device.Event) {}

func (s *stubController) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode[types.HealthResponse](t, w)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, 1, resp.Devices)
	assert.Equal(t, 0, resp.Available)

	stub.connected = true
	w = do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", decode[types.HealthResponse](t, w).Controller)
}

func TestDevices_ListAndGet(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[types.ListDevicesResponse](t, w)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "192.168.1.20:31339", list.Devices[0].Endpoint)
	assert.Equal(t, 10, list.Devices[0].PollIntervalSeconds)
	assert.Equal(t, "ON", list.Devices[0].State["power"])

	w = do(t, h, http.MethodGet, "/api/v1/devices/Living%20Room", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "box-1", decode[types.DeviceResponse](t, w).Device.ID)

	w = do(t, h, http.MethodGet, "/api/v1/devices/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[types.ErrorResponse](t, w).Error)
}

func TestDevices_Add(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/devices", `{"name":"Den","host":"192.168.1.21","poll_interval_seconds":30}`)
	require.Equal(t, http.StatusCreated, w.Code)
	got := decode[types.DeviceResponse](t, w).Device
	assert.Equal(t, "Den", got.Name)
	assert.Equal(t, 30, got.PollIntervalSeconds)

	w = do(t, h, http.MethodPost, "/api/v1/devices", `{"name":"Den","host":"192.168.1.22"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/devices", `{"name":"Attic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decode[types.ErrorResponse](t, w).Error)

	w = do(t, h, http.MethodPost, "/api/v1/devices", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevices_RenameAndRemove(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodPatch, "/api/v1/devices/box-1", `{"name":"Bedroom"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bedroom", decode[types.DeviceResponse](t, w).Device.Name)

	w = do(t, h, http.MethodPatch, "/api/v1/devices/box-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodDelete, "/api/v1/devices/Bedroom", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, http.MethodDelete, "/api/v1/devices/Bedroom", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestState_SetAndGet(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodPost, "/api/v1/devices/box-1/state", `{"channel":"645"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.StateResponse](t, w)
	assert.Equal(t, "Living Room", resp.Device)
	assert.Equal(t, "645", resp.State["channel"])
	assert.Equal(t, map[string]any{"channel": "645"}, stub.lastState)

	w = do(t, h, http.MethodGet, "/api/v1/devices/box-1/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0007", decode[types.StateResponse](t, w).State["channel"])

	w = do(t, h, http.MethodPost, "/api/v1/devices/box-1/state", `[`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestState_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{device.ErrValidation, http.StatusBadRequest, "validation_error"},
		{device.ErrTimeout, http.StatusGatewayTimeout, "timeout"},
		{device.ErrUnreachable, http.StatusBadGateway, "device_unreachable"},
		{device.ErrUpstream, http.StatusBadGateway, "listings_error"},
		{device.ErrNotConnected, http.StatusServiceUnavailable, "controller_disconnected"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "controller_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			stub := newStub()
			stub.setErr = fmt.Errorf("wrapped: %w", tc.err)
			h := NewRouter(stub, stub).Handler()

			w := do(t, h, http.MethodPost, "/api/v1/devices/box-1/state", `{"command":"play"}`)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode[types.ErrorResponse](t, w).Error)
		})
	}
}

func TestListings(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/listings/channels", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	stub.listings = []listings.Channel{
		{Number: "0007", CallSign: "WLS", Program: listings.Program{Title: "News"}},
	}

	w = do(t, h, http.MethodGet, "/api/v1/listings/channels", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListChannelsResponse](t, w).Count)

	w = do(t, h, http.MethodGet, "/api/v1/listings/channels/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "WLS", decode[types.ChannelResponse](t, w).Channel.CallSign)

	w = do(t, h, http.MethodGet, "/api/v1/listings/channels/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/listings/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[types.ListingsStatusResponse](t, w).Channels)
}

func TestMetricsEndpoint(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEvents_Stream(t *testing.T) {
	stub := newStub()
	srv := httptest.NewServer(NewRouter(stub, stub).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return stub.subscribers() == 1 }, time.Second, 10*time.Millisecond)
	stub.mu.Lock()
	stub.subs[0] <- device.Event{Type: device.EventStateChanged, State: device.DeviceState{"channel": "0007"}}
	stub.mu.Unlock()

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: "+device.EventStateChanged) {
			break
		}
	}
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"channel":"0007"`)
}

func TestRequestID(t *testing.T) {
	stub := newStub()
	h := NewRouter(stub, stub).Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
