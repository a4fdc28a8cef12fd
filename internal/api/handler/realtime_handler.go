package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mesadeayuda/incident-system/internal/api/middleware"
	"github.com/mesadeayuda/incident-system/internal/realtime"
)

// RealtimeHandler upgrades authenticated requests to websocket sessions and
// hands them to the hub.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

func NewRealtimeHandler(hub *realtime.Hub, allowedOrigins []string) *RealtimeHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Connect handles GET /ws. The Auth middleware runs first, so the session is
// bound to a resolved user.
//
// @Summary      Open the realtime notification channel
// @Tags         notifications
// @Security     BearerAuth
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /ws [get]
func (h *RealtimeHandler) Connect(c echo.Context) error {
	actor := middleware.Actor(c)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		return nil
	}

	h.hub.Serve(actor.UserID, conn)
	return nil
}
