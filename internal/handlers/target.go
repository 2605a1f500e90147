package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"surveillance/internal/logger"
	"surveillance/internal/services/target"
)

type TargetService interface {
	RegisterTarget(ctx context.Context, image []byte) error
	ClearTarget()
}

// UploadTargetHandler registers the image in multipart field "file" as the
// target. Undecodable images get 400, embedding failures 422.
func UploadTargetHandler(targets TargetService, maxUploadMB int64, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := maxUploadMB << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error(), logger)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing file field", logger)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unable to read upload", logger)
			return
		}

		err = targets.RegisterTarget(r.Context(), data)
		switch {
		case err == nil:
			logger.Info("Target uploaded: %s (%d bytes)", header.Filename, len(data))
			writeJSON(w, http.StatusOK, map[string]string{"message": "Target registered successfully"}, logger)
		case errors.Is(err, target.ErrDecode):
			logger.Warning("Rejected target upload %s: %v", header.Filename, err)
			writeError(w, http.StatusBadRequest, "Invalid image", logger)
		case errors.Is(err, target.ErrEmbed):
			logger.Error("Target embedding failed for %s: %v", header.Filename, err)
			writeError(w, http.StatusUnprocessableEntity, "Could not extract features from image", logger)
		default:
			logger.Error("Target registration failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", logger)
		}
	}
}

func ClearTargetHandler(targets TargetService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targets.ClearTarget()
		w.WriteHeader(http.StatusNoContent)
	}
}
