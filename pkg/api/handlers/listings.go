package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-tivo/pkg/api/types"
	"github.com/urmzd/homai-tivo/pkg/device"
)

// ListingsHandler exposes the listings lookup tables
type ListingsHandler struct {
	controller device.Controller
}

// NewListingsHandler creates a new listings handler
func NewListingsHandler(controller device.Controller) *ListingsHandler {
	return &ListingsHandler{controller: controller}
}

// ListChannels handles GET /listings/channels
// @Summary      List channels
// @Description  Returns every channel of the listings tables with its call sign and current program
// @Tags         listings
// @Produce      json
// @Success      200  {object}  types.ListChannelsResponse
// @Failure      501  {object}  types.ErrorResponse  "No listings account configured"
// @Router       /listings/channels [get]
func (h *ListingsHandler) ListChannels(c *gin.Context) {
	rows, err := h.controller.Listings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListChannelsResponse{Channels: rows, Count: len(rows)})
}

// GetChannel handles GET /listings/channels/:channel
// @Summary      Look up a channel
// @Description  Returns the call sign and current program of one channel number
// @Tags         listings
// @Produce      json
// @Param        channel  path      string  true  "Channel number, e.g. 7 or 12.3"
// @Success      200      {object}  types.ChannelResponse
// @Failure      404      {object}  types.ErrorResponse  "Channel not in listings"
// @Failure      501      {object}  types.ErrorResponse  "No listings account configured"
// @Router       /listings/channels/{channel} [get]
func (h *ListingsHandler) GetChannel(c *gin.Context) {
	row, err := h.controller.LookupChannel(c.Request.Context(), c.Param("channel"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ChannelResponse{Channel: row})
}

// Refresh handles POST /listings/refresh
// @Summary      Refresh listings
// @Description  Logs in to the listings service and rebuilds the lookup tables now
// @Tags         listings
// @Produce      json
// @Success      200  {object}  types.ListingsStatusResponse
// @Failure      501  {object}  types.ErrorResponse  "No listings account configured"
// @Failure      500  {object}  types.ErrorResponse  "Refresh failed"
// @Router       /listings/refresh [post]
func (h *ListingsHandler) Refresh(c *gin.Context) {
	status, err := h.controller.RefreshListings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListingsStatusResponse{
		Configured:  status.Configured,
		Channels:    status.Channels,
		LastRefresh: status.LastRefresh,
	})
}
