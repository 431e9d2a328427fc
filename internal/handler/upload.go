package handler

import (
	"errors"
	"net/http"

	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/service"
	"crowdwatch/internal/service/session"
	"crowdwatch/internal/service/storage"
	"crowdwatch/internal/service/vision"
)

// maxUploadMemory bounds the multipart parse buffer; larger bodies spill
// to temp files.
const maxUploadMemory = 32 << 20

// UploadVideoHandler stores an uploaded video for the authenticated user,
// replacing any previous upload and releasing any running session over it.
func UploadVideoHandler(uploads *storage.UploadStore, manager *service.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID, ok := middleware.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid upload")
			return
		}

		file, _, err := r.FormFile("video")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No video")
			return
		}
		defer file.Close()

		// The old session holds a handle on the file being replaced.
		manager.StopUploadAnalysis(userID)

		if _, err := uploads.Save(userID, file); err != nil {
			log.Error("Upload save failed for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Failed to store upload")
			return
		}

		writeMessage(w, http.StatusOK, "Uploaded and ready for analysis")
	}
}

// StartAnalysisHandler opens an analysis session over the user's uploaded
// video.
func StartAnalysisHandler(manager *service.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID, ok := middleware.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		totalFrames, err := manager.StartUploadAnalysis(userID)
		if err != nil {
			if errors.Is(err, session.ErrMediaOpen) {
				writeError(w, http.StatusNotFound, "No uploaded video found for analysis. Please upload one.")
				return
			}
			log.Error("Failed to start analysis for user %d: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Failed to open video file")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":      "Analysis session started.",
			"total_frames": totalFrames,
		})
	}
}

// StopAnalysisHandler tears the user's analysis session down, releasing
// the media handle.
func StopAnalysisHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		userID, ok := middleware.UserID(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		manager.StopUploadAnalysis(userID)
		writeMessage(w, http.StatusOK, "Analysis stopped")
	}
}

// FrameDataHandler advances the session by one frame and returns the
// analysis result. Once the video ends the response carries finished=true
// and the session is gone; the next call is a 400.
func FrameDataHandler(manager *service.Manager, log *logger.Logger) http.HandlerFunc {
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

		result, err := manager.NextUploadFrame(userID)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrNoActiveSession):
				writeError(w, http.StatusBadRequest, "Analysis session not started.")
			case errors.Is(err, vision.ErrModelUnavailable):
				writeError(w, http.StatusServiceUnavailable, "Detection model unavailable")
			default:
				log.Error("Frame analysis failed for user %d: %v", userID, err)
				writeError(w, http.StatusInternalServerError, "Failed to analyze frame")
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
