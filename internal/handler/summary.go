package handler

import (
	"net/http"
	"time"

	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/repository"
)

// DailySummaryHandler aggregates today's analytics for the authenticated
// user: entry/exit totals plus hourly average occupancy per zone.
func DailySummaryHandler(analyticsRepo repository.AnalyticsRepository, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID, ok := middleware.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		summary, err := analyticsRepo.DailySummary(userID, time.Now())
		if err != nil {
			log.Error("Daily summary failed for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Failed to build daily summary")
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
