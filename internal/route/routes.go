package route

import (
	"net/http"
	"os"
	"path/filepath"

	"crowdwatch/internal/config"
	"crowdwatch/internal/handler"
	"crowdwatch/internal/logger"
	"crowdwatch/internal/middleware"
	"crowdwatch/internal/repository"
	"crowdwatch/internal/service"
	"crowdwatch/internal/service/hub"
	"crowdwatch/internal/service/storage"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists;
// otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, path+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers static file serving, the API endpoints and the
// live preview stream, and wraps the mux with the auth middleware.
func SetupRoutes(
	manager *service.Manager,
	viewers *hub.Hub,
	uploads *storage.UploadStore,
	cfg *config.Config,
	log *logger.Logger,
	zoneRepo repository.ZoneRepository,
	analyticsRepo repository.AnalyticsRepository,
	userRepo repository.UserRepository,
) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Unauthenticated raw preview for the dashboard <img> tag.
	mux.Handle("/live/preview", manager.PreviewStream())

	// Auth endpoints
	mux.HandleFunc("/api/auth/register", handler.RegisterHandler(userRepo, log))
	mux.HandleFunc("/api/auth/login", handler.LoginHandler(userRepo, cfg, log))

	// Account endpoints
	mux.HandleFunc("/api/profiles", handler.ProfilesHandler(userRepo, log))
	mux.HandleFunc("/api/current-user", handler.CurrentUserHandler(userRepo, log))

	// Zone CRUD
	mux.HandleFunc("/api/zones", handler.ZonesHandler(zoneRepo, log))
	mux.HandleFunc("/api/zones/", handler.DeleteZoneHandler(zoneRepo, log))

	// Live camera endpoints
	mux.HandleFunc("/api/live/start", handler.StartLiveHandler(manager, log))
	mux.HandleFunc("/api/live/stop", handler.StopLiveHandler(manager))
	mux.HandleFunc("/api/live/analyze", handler.AnalyzeLiveHandler(manager, log))
	mux.HandleFunc("/api/live/ws", handler.LiveViewersHandler(viewers, log))

	// Upload + batch analysis endpoints
	mux.HandleFunc("/api/videos/upload", handler.UploadVideoHandler(uploads, manager, log))
	mux.HandleFunc("/api/analysis/start", handler.StartAnalysisHandler(manager, log))
	mux.HandleFunc("/api/analysis/stop", handler.StopAnalysisHandler(manager))
	mux.HandleFunc("/api/analysis/frame", handler.FrameDataHandler(manager, log))

	// Analytics
	mux.HandleFunc("/api/summary/daily", handler.DailySummaryHandler(analyticsRepo, log))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(cfg, "info.log"))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(cfg, "warning.log"))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(cfg, "error.log"))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(log, "info.log"))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(log, "warning.log"))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(log, "error.log"))

	// Automatic HTML handler mapping, for example /dashboard -> /static/dashboard.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	// Apply middleware
	return middleware.Auth(cfg.JWTSecret, mux)
}
