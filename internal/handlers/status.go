package handlers

import (
	"net/http"

	"surveillance/internal/logger"
)

func StatusHandler(logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "Surveillance System Backend Running"}, logger)
	}
}
