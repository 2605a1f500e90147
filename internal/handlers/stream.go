package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/services"

	"github.com/gorilla/websocket"
)

// FrameStream produces annotated frames for one camera at a time.
type FrameStream interface {
	Next(ctx context.Context, camera int) (services.Delivery, bool)
	HasCamera(camera int) bool
}

type streamAlerts struct {
	Camera int            `json:"camera"`
	Alerts []models.Alert `json:"alerts"`
}

// StreamWebsocketHandler pushes JPEG frames of camera {id} as binary messages,
// each followed by a text message with its alerts when there are any.
func StreamWebsocketHandler(stream FrameStream, pollInterval time.Duration, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camera, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || camera < 0 {
			http.Error(w, "Invalid camera id", http.StatusBadRequest)
			return
		}
		if !stream.HasCamera(camera) {
			http.Error(w, "Camera not found", http.StatusNotFound)
			return
		}

		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		logger.Info("Viewer connected to camera %d", camera)
		defer logger.Info("Viewer disconnected from camera %d", camera)

		done := make(chan struct{})
		go readUntilClosed(conn, done)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		poll := time.NewTicker(pollInterval)
		defer poll.Stop()
		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-poll.C:
				d, ok := stream.Next(ctx, camera)
				if !ok {
					continue
				}
				if err := sendDelivery(conn, d); err != nil {
					logger.Warning("Camera %d: error sending frame: %v", camera, err)
					return
				}
			}
		}
	}
}

func sendDelivery(conn *websocket.Conn, d services.Delivery) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, d.Image); err != nil {
		return err
	}
	if len(d.Alerts) == 0 {
		return nil
	}

	msg, err := json.Marshal(streamAlerts{Camera: d.Camera, Alerts: d.Alerts})
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, msg)
}
