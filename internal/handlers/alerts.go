package handlers

import (
	"net/http"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services/websocket"
)

type AlertHistory interface {
	Alerts() []models.Alert
}

// AlertsHandler returns the alert history, newest first.
func AlertsHandler(history AlertHistory, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, history.Alerts(), logger)
	}
}

// AlertFeedHandler subscribes a websocket client to live alerts.
func AlertFeedHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}

		defer conn.Close()

		if !hub.Register(conn) {
			return
		}
		defer hub.Unregister(conn)

		done := make(chan struct{})
		go readUntilClosed(conn, done)

		select {
		case <-done:
		case <-r.Context().Done():
		}
	}
}
