package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-tivo/pkg/api/types"
	"github.com/urmzd/homai-tivo/pkg/device"
)

// DevicesHandler handles device CRUD endpoints
type DevicesHandler struct {
	controller device.Controller
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(controller device.Controller) *DevicesHandler {
	return &DevicesHandler{controller: controller}
}

// ListDevices handles GET /devices
// @Summary      List all devices
// @Description  Returns every registered set-top box with its last known state
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.ListDevicesResponse
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	ctx := c.Request.Context()

	devices, err := h.controller.ListDevices(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]types.DeviceWithState, 0, len(devices))
	for _, d := range devices {
		// State is best effort; a device without one is still listed.
		state, _ := h.controller.GetDeviceState(ctx, d.ID)
		result = append(result, types.NewDeviceWithState(d, state))
	}

	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: result,
		Count:   len(result),
	})
}

// AddDevice handles POST /devices
// @Summary      Add a device
// @Description  Registers a set-top box reached over TCP or a serial line and starts polling it
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        request  body      types.AddDeviceRequest  true  "Device"
// @Success      201      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      409      {object}  types.ErrorResponse  "Duplicate name or endpoint"
// @Failure      500      {object}  types.ErrorResponse  "Controller error"
// @Router       /devices [post]
func (h *DevicesHandler) AddDevice(c *gin.Context) {
	var req types.AddDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	d, err := h.controller.AddDevice(c.Request.Context(), req.Device())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.DeviceResponse{
		Device: types.NewDeviceWithState(*d, nil),
	})
}

// GetDevice handles GET /devices/:id
// @Summary      Get device details
// @Description  Returns details for a specific device by ID or name
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID or name"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	state, _ := h.controller.GetDeviceState(ctx, d.ID)
	c.JSON(http.StatusOK, types.DeviceResponse{
		Device: types.NewDeviceWithState(*d, state),
	})
}

// RenameDevice handles PATCH /devices/:id
// @Summary      Rename a device
// @Description  Changes the display name of a device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Device ID or name"
// @Param        request  body      types.RenameDeviceRequest  true  "New name"
// @Success      200      {object}  types.DeviceResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      409      {object}  types.ErrorResponse  "Name in use"
// @Router       /devices/{id} [patch]
func (h *DevicesHandler) RenameDevice(c *gin.Context) {
	ctx := c.Request.Context()

	var req types.RenameDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "name is required",
		})
		return
	}

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.controller.RenameDevice(ctx, d.ID, req.Name); err != nil {
		respondError(c, err)
		return
	}

	d, err = h.controller.GetDevice(ctx, d.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DeviceResponse{
		Device: types.NewDeviceWithState(*d, nil),
	})
}

// RemoveDevice handles DELETE /devices/:id
// @Summary      Remove a device
// @Description  Stops polling a device and forgets it
// @Tags         devices
// @Produce      json
// @Param        id   path  string  true  "Device ID or name"
// @Success      204  "Device removed successfully"
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id} [delete]
func (h *DevicesHandler) RemoveDevice(c *gin.Context) {
	if err := h.controller.RemoveDevice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
