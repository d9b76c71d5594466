package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-tivo/pkg/api/types"
	"github.com/urmzd/homai-tivo/pkg/device"
)

// HealthHandler reports whether any set-top box is answering.
type HealthHandler struct {
	controller device.Controller
}

func NewHealthHandler(controller device.Controller) *HealthHandler {
	return &HealthHandler{controller: controller}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns healthy when at least one set-top box answered its last poll
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Service is degraded"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:     "healthy",
		Controller: "connected",
		Timestamp:  time.Now(),
	}

	ctx := c.Request.Context()
	if devices, err := h.controller.ListDevices(ctx); err == nil {
		resp.Devices = len(devices)
		for _, d := range devices {
			state, err := h.controller.GetDeviceState(ctx, d.ID)
			if err != nil {
				continue
			}
			if up, _ := state["available"].(bool); up {
				resp.Available++
			}
		}
	}

	if !h.controller.IsConnected() {
		resp.Status = "degraded"
		resp.Controller = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
