package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/service"
	"crowdwatch/internal/service/hub"
	"crowdwatch/internal/service/session"
	"crowdwatch/internal/service/vision"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StartLiveHandler starts the shared camera session and the preview pump.
func StartLiveHandler(manager *service.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		if err := manager.StartLive(); err != nil {
			log.Error("Failed to start live stream: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to start live stream")
			return
		}

		writeMessage(w, http.StatusOK, "Live stream started")
	}
}

// StopLiveHandler stops the shared camera session.
func StopLiveHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		manager.StopLive()
		writeMessage(w, http.StatusOK, "Live stream stopped")
	}
}

// AnalyzeLiveHandler runs the analysis pipeline on one live camera frame.
func AnalyzeLiveHandler(manager *service.Manager, log *logger.Logger) http.HandlerFunc {
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

		result, err := manager.AnalyzeLive(userID)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrSessionStopped):
				writeError(w, http.StatusBadRequest, "Live stream not started. Please start first.")
			case errors.Is(err, vision.ErrModelUnavailable):
				writeError(w, http.StatusServiceUnavailable, "Detection model unavailable")
			default:
				log.Error("Live analysis failed: %v", err)
				writeError(w, http.StatusInternalServerError, "Failed to analyze live frame")
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// LiveViewersHandler subscribes a websocket client to the live counts feed.
func LiveViewersHandler(viewers *hub.Hub, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		viewers.Register(connection)
		defer viewers.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
	}
}
