package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/urmzd/homai-tivo/pkg/player"
)

const idDescription = "Device ID or name"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check whether any set-top box answered its last status poll"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_devices",
			mcp.WithDescription("List all set-top boxes with their current channel, program and power state"),
		),
		s.handleListDevices,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device",
			mcp.WithDescription("Get detailed information about a specific set-top box by ID or name"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleGetDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_device",
			mcp.WithDescription("Register a set-top box reachable over the network remote-control port or a serial line"),
			mcp.WithString("name", mcp.Description("Display name (default \"TiVo Receiver\")")),
			mcp.WithString("protocol", mcp.Enum("tcp", "serial"), mcp.Description("Transport (default tcp)")),
			mcp.WithString("host", mcp.Description("Host name or IP address for tcp")),
			mcp.WithNumber("port", mcp.Description("TCP port (default 31339)")),
			mcp.WithString("serial_port", mcp.Description("Serial device path for serial")),
			mcp.WithBoolean("uses_listings", mcp.Description("Enrich state with call signs and program titles")),
		),
		s.handleAddDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("rename_device",
			mcp.WithDescription("Change a set-top box's display name"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("new_name", mcp.Required(), mcp.Description("New display name")),
		),
		s.handleRenameDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("remove_device",
			mcp.WithDescription("Stop polling a set-top box and forget it"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleRemoveDevice,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_device_state",
			mcp.WithDescription("Get the current state of a set-top box (power, mode, channel, title, artwork)"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleGetDeviceState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_device_state",
			mcp.WithDescription("Apply power, channel and command fields in that order. The object is validated against the device's state schema."),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithObject("state",
				mcp.Required(),
				mcp.Description("State to apply (e.g. {\"power\": \"ON\", \"channel\": \"645\"})"),
			),
		),
		s.handleSetDeviceState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("send_command",
			mcp.WithDescription("Send a remote-control command such as play, pause, guide or channel_up"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("command", mcp.Required(), mcp.Enum(player.Commands()...)),
		),
		s.handleSendCommand,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_channel",
			mcp.WithDescription("Switch to live TV and tune a channel"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
			mcp.WithString("channel", mcp.Required(), mcp.Description("Channel number, e.g. 645 or 12.3")),
		),
		s.handleSetChannel,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("turn_on",
			mcp.WithDescription("Wake a set-top box from standby"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleTurnOn,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("turn_off",
			mcp.WithDescription("Put a set-top box into standby"),
			mcp.WithString("id", mcp.Required(), mcp.Description(idDescription)),
		),
		s.handleTurnOff,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_channels",
			mcp.WithDescription("List every channel in the TV listings with its call sign and current program"),
		),
		s.handleListChannels,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("lookup_channel",
			mcp.WithDescription("Look up the call sign and current program of one channel"),
			mcp.WithString("channel", mcp.Required(), mcp.Description("Channel number, e.g. 7 or 12.3")),
		),
		s.handleLookupChannel,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh_listings",
			mcp.WithDescription("Rebuild the TV listings tables now"),
		),
		s.handleRefreshListings,
	)
}
