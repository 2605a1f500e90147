package handlers

import (
	"net/http"

	"surveillance/internal/logger"
	"surveillance/internal/services/camera"
)

type CameraLister interface {
	Cameras() []camera.CameraStatus
}

func CamerasHandler(cameras CameraLister, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cameras.Cameras(), logger)
	}
}
