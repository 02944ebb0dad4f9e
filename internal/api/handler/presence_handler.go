package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// presenceLister is the slice of the presence store this handler needs.
type presenceLister interface {
	Online(ctx context.Context) ([]string, error)
}

// PresenceHandler exposes who is currently connected to the relay.
type PresenceHandler struct {
	presence presenceLister
}

func NewPresenceHandler(presence presenceLister) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

type presenceResponse struct {
	Online []string `json:"online"`
	Count  int      `json:"count"`
}

// List handles GET /v1/presence.
//
// @Summary      List online identities
// @Tags         presence
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  presenceResponse
// @Failure      401  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/presence [get]
func (h *PresenceHandler) List(c echo.Context) error {
	online, err := h.presence.Online(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "presence unavailable")
	}
	return c.JSON(http.StatusOK, presenceResponse{Online: online, Count: len(online)})
}
