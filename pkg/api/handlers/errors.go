package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homai-tivo/pkg/api/types"
	"github.com/urmzd/homai-tivo/pkg/device"
)

// respondError maps controller sentinels onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "controller_error"
	switch {
	case errors.Is(err, device.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, device.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, device.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, device.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, device.ErrUnreachable):
		status, code = http.StatusBadGateway, "device_unreachable"
	case errors.Is(err, device.ErrUpstream):
		status, code = http.StatusBadGateway, "listings_error"
	case errors.Is(err, device.ErrUnsupported):
		status, code = http.StatusNotImplemented, "unsupported"
	case errors.Is(err, device.ErrNotConnected):
		status, code = http.StatusServiceUnavailable, "controller_disconnected"
	}
	c.JSON(status, types.ErrorResponse{Error: code, Message: err.Error()})
}
