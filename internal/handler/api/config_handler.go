package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"paybridge/internal/models"
)

// ConfigHandler publishes the client checkout settings.
type ConfigHandler struct {
	resp models.CheckoutConfigResponse
}

func NewConfigHandler(processorURL, origin string, attemptTimeout time.Duration) *ConfigHandler {
	return &ConfigHandler{resp: models.CheckoutConfigResponse{
		ProcessorURL:     processorURL,
		Origin:           origin,
		AttemptTimeoutMs: attemptTimeout.Milliseconds(),
	}}
}

// Get returns the settings the enabler needs to start an attempt.
// GET /config
func (h *ConfigHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.resp)
}
