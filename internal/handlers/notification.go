package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/notify"
)

// NotificationHandler upgrades authenticated clients onto the websocket hub.
type NotificationHandler struct {
	hub    *notify.Hub
	logger *zap.SugaredLogger
}

func NewNotificationHandler(hub *notify.Hub, logger *zap.SugaredLogger) *NotificationHandler {
	return &NotificationHandler{hub: hub, logger: logger}
}

// Subscribe handles GET /api/v1/notifications/ws
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOr401(w, r)
	if !ok {
		return
	}
	h.hub.ServeWS(w, r, caller.ID)
}
