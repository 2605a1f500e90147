package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"surveillance/internal/dto"
	"surveillance/internal/logger"
	"surveillance/internal/models"
	"surveillance/internal/repository"
	"surveillance/internal/services/storage"
)

// EvidenceListHandler lists catalogued evidence, newest first. It accepts
// kind, camera, since, page and limit query parameters.
func EvidenceListHandler(repo repository.EvidenceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &models.EvidenceFilter{
			Kind:   models.AlertKind(q.Get("kind")),
			Since:  parseSince(q.Get("since")),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}
		if v := q.Get("camera"); v != "" {
			camera, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid camera", logger)
				return
			}
			filter.Camera = &camera
		}

		records, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying evidence: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", logger)
			return
		}
		total, err := repo.Count(filter)
		if err != nil {
			logger.Error("Error counting evidence: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", logger)
			return
		}

		items := make([]dto.EvidenceItem, 0, len(records))
		for _, rec := range records {
			items = append(items, dto.EvidenceItem{EvidenceRecord: rec, URL: storage.URLPrefix + rec.Filename})
		}

		writeJSON(w, http.StatusOK, dto.EvidencePage{
			Items:       items,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

func EvidenceStatsHandler(repo repository.EvidenceRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := repo.GetStats()
		if err != nil {
			logger.Error("Error reading evidence stats: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", logger)
			return
		}
		writeJSON(w, http.StatusOK, stats, logger)
	}
}

// DeleteEvidenceHandler removes the file named by the "filename" query parameter
// and its catalog entry.
func DeleteEvidenceHandler(repo repository.EvidenceRepository, evidenceDir string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Query().Get("filename"))
		if _, err := storage.ParseEvidenceName(name); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid evidence file", logger)
			return
		}

		if err := os.Remove(filepath.Join(evidenceDir, name)); err != nil && !os.IsNotExist(err) {
			logger.Error("Error deleting evidence %s: %v", name, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", logger)
			return
		}
		if err := repo.DeleteByFilename(name); err != nil {
			logger.Error("Error removing %s from catalog: %v", name, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error", logger)
			return
		}

		logger.Info("Evidence deleted: %s", name)
		w.WriteHeader(http.StatusNoContent)
	}
}
