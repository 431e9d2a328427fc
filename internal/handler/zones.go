package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"crowdwatch/internal/dto"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/model"
	"crowdwatch/internal/repository"
	"crowdwatch/internal/repository/sqlite"
)

// ZonesHandler serves zone creation (POST) and listing (GET) for the
// authenticated user.
func ZonesHandler(zoneRepo repository.ZoneRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req dto.ZoneRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if req.Name == "" || len(req.Coordinates) == 0 {
				writeError(w, http.StatusBadRequest, "Invalid zone data")
				return
			}

			zone := &model.Zone{
				UserID:  userID,
				Name:    req.Name,
				Polygon: req.Coordinates,
			}
			id, err := zoneRepo.Insert(zone)
			if err != nil {
				log.Error("Zone insert failed: %v", err)
				writeError(w, http.StatusInternalServerError, "Failed to save zone")
				return
			}

			writeJSON(w, http.StatusCreated, map[string]interface{}{
				"message": "Zone saved",
				"id":      id,
			})

		case http.MethodGet:
			zones, err := zoneRepo.GetByUser(userID)
			if err != nil {
				log.Error("Zone query failed: %v", err)
				writeError(w, http.StatusInternalServerError, "Failed to load zones")
				return
			}
			if zones == nil {
				zones = []model.Zone{}
			}
			writeJSON(w, http.StatusOK, dto.ZoneList{Zones: zones})

		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// DeleteZoneHandler removes a zone by the ID in the path suffix. Historical
// analytics rows for the zone are retained.
func DeleteZoneHandler(zoneRepo repository.ZoneRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID, ok := middleware.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/api/zones/")
		zoneID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid zone id")
			return
		}

		if err := zoneRepo.Delete(zoneID, userID); err != nil {
			if errors.Is(err, sqlite.ErrZoneNotFound) {
				writeError(w, http.StatusNotFound, "Zone not found")
				return
			}
			log.Error("Zone delete failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to delete zone")
			return
		}

		writeMessage(w, http.StatusOK, "Zone deleted")
	}
}
