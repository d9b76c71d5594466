package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/homai-tivo/pkg/device"
)

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	controllerStatus := "disconnected"
	if s.controller.IsConnected() {
		controllerStatus = "connected"
	}

	status := "healthy"
	if controllerStatus != "connected" {
		status = "unhealthy"
	}

	out := GetHealthOutput{
		Status:     status,
		Controller: controllerStatus,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleListDevices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices, err := s.controller.ListDevices(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list devices: %s", err)), nil
	}

	infos := make([]DeviceInfo, 0, len(devices))
	for i := range devices {
		info := DeviceToInfo(&devices[i])
		if state, err := s.controller.GetDeviceState(ctx, devices[i].ID); err == nil {
			info.State = state
		}
		infos = append(infos, info)
	}

	out := ListDevicesOutput{
		Devices: infos,
		Count:   len(infos),
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, err := s.controller.GetDevice(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("device not found: %s", err)), nil
	}

	info := DeviceToInfo(d)
	if state, err := s.controller.GetDeviceState(ctx, d.ID); err == nil {
		info.State = state
	}

	return mcp.NewToolResultText(formatJSON(GetDeviceOutput{Device: info})), nil
}

func (s *Server) handleAddDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d := device.Device{
		Name:         request.GetString("name", ""),
		Protocol:     request.GetString("protocol", ""),
		Host:         request.GetString("host", ""),
		Port:         request.GetInt("port", 0),
		SerialPort:   request.GetString("serial_port", ""),
		UsesListings: request.GetBool("uses_listings", false),
	}

	added, err := s.controller.AddDevice(ctx, d)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add device: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(GetDeviceOutput{Device: DeviceToInfo(added)})), nil
}

func (s *Server) handleRenameDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newName, err := requiredString(request, "new_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RenameDevice(ctx, id, newName); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rename device: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Device %q renamed to %q", id, newName),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleRemoveDevice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.controller.RemoveDevice(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove device: %s", err)), nil
	}

	out := ActionOutput{
		Success: true,
		Message: fmt.Sprintf("Device %q removed", id),
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

func (s *Server) handleGetDeviceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.controller.GetDeviceState(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get device state: %s", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(DeviceStateOutput{DeviceID: id, State: state})), nil
}

func (s *Server) handleSetDeviceState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	// State may be nested under "state" or passed as flat args.
	stateMap := map[string]any{}
	if stateRaw, ok := args["state"]; ok {
		if sm, ok := stateRaw.(map[string]any); ok {
			stateMap = sm
		}
	} else {
		for k, v := range args {
			if k != "id" {
				stateMap[k] = v
			}
		}
	}

	return s.setState(ctx, id, stateMap, "set device state")
}

func (s *Server) handleSendCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := requiredString(request, "command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.setState(ctx, id, map[string]any{"command": command}, "send command")
}

func (s *Server) handleSetChannel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	channel, err := requiredString(request, "channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.setState(ctx, id, map[string]any{"channel": channel}, "set channel")
}

func (s *Server) handleTurnOn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.setState(ctx, id, map[string]any{"power": device.PowerOn}, "turn on device")
}

func (s *Server) handleTurnOff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requiredString(request, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.setState(ctx, id, map[string]any{"power": device.PowerOff}, "turn off device")
}

func (s *Server) handleListChannels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.controller.Listings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list channels: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(ListChannelsOutput{Channels: rows, Count: len(rows)})), nil
}

func (s *Server) handleLookupChannel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ch, err := requiredString(request, "channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	row, err := s.controller.LookupChannel(ctx, ch)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to look up channel: %s", err)), nil
	}
	return mcp.NewToolResultText(formatJSON(LookupChannelOutput{Channel: row})), nil
}

func (s *Server) handleRefreshListings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.controller.RefreshListings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to refresh listings: %s", err)), nil
	}
	out := ListingsStatusOutput{
		Configured:  status.Configured,
		Channels:    status.Channels,
		LastRefresh: status.LastRefresh,
	}
	return mcp.NewToolResultText(formatJSON(out)), nil
}

// --- helpers ---

func (s *Server) setState(ctx context.Context, id string, state map[string]any, action string) (*mcp.CallToolResult, error) {
	result, err := s.controller.SetDeviceState(ctx, id, state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %s", action, err)), nil
	}
	return mcp.NewToolResultText(formatJSON(DeviceStateOutput{DeviceID: id, State: result})), nil
}

func requiredString(request mcp.CallToolRequest, key string) (string, error) {
	args := request.GetArguments()
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required parameter %q is missing", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func formatJSON(v any) string {
	b, err := encodeJSON(v)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal response: %s"}`, err)
	}
	return string(b)
}

func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
