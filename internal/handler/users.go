package handler

import (
	"errors"
	"net/http"

	"crowdwatch/internal/dto"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/repository"
	"crowdwatch/internal/repository/sqlite"
)

// ProfilesHandler lists every registered account for the profiles page,
// flagging the requesting user's own entry.
func ProfilesHandler(userRepo repository.UserRepository, log *logger.Logger) http.HandlerFunc {
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

		users, err := userRepo.GetAll()
		if err != nil {
			log.Error("Profile query failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to load profiles")
			return
		}

		profiles := make([]dto.Profile, 0, len(users))
		for _, user := range users {
			isCurrent := user.ID == userID
			status := "Inactive"
			if isCurrent {
				status = "Active"
			}
			profiles = append(profiles, dto.Profile{
				Username:  user.Username,
				Email:     user.Email,
				Status:    status,
				IsCurrent: isCurrent,
			})
		}

		writeJSON(w, http.StatusOK, dto.ProfileList{Profiles: profiles})
	}
}

// CurrentUserHandler returns the authenticated account's username.
func CurrentUserHandler(userRepo repository.UserRepository, log *logger.Logger) http.HandlerFunc {
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

		user, err := userRepo.GetByID(userID)
		if err != nil {
			if errors.Is(err, sqlite.ErrUserNotFound) {
				writeError(w, http.StatusNotFound, "User not found")
				return
			}
			log.Error("Current user lookup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to load user")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"username": user.Username})
	}
}
