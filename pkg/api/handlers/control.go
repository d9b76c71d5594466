package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-tivo/pkg/api/types"
	"github.com/urmzd/homai-tivo/pkg/device"
)

// ControlHandler handles device state control endpoints
type ControlHandler struct {
	controller device.Controller
}

// NewControlHandler creates a new control handler
func NewControlHandler(controller device.Controller) *ControlHandler {
	return &ControlHandler{controller: controller}
}

// GetState handles GET /devices/:id/state
// @Summary      Get device state
// @Description  Returns the last polled display record of a set-top box
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device ID or name"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Failure      500  {object}  types.ErrorResponse  "Controller error"
// @Router       /devices/{id}/state [get]
func (h *ControlHandler) GetState(c *gin.Context) {
	ctx := c.Request.Context()

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.controller.GetDeviceState(ctx, d.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Device:    d.Name,
		State:     state,
		Timestamp: time.Now(),
	})
}

// SetState handles POST /devices/:id/state
// @Summary      Control a set-top box
// @Description  Applies power, channel and command fields in that order. The body is validated against the device's state schema.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Device ID or name"
// @Param        request  body      object  true  "e.g. {\"power\":\"ON\",\"channel\":\"645\",\"command\":\"guide\"}"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Failure      502      {object}  types.ErrorResponse  "Device unreachable"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /devices/{id}/state [post]
func (h *ControlHandler) SetState(c *gin.Context) {
	ctx := c.Request.Context()

	var req map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	d, err := h.controller.GetDevice(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	state, err := h.controller.SetDeviceState(ctx, d.ID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.StateResponse{
		Device:    d.Name,
		State:     state,
		Timestamp: time.Now(),
	})
}
