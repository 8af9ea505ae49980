package route

import (
	"net/http"
	"os"
	"path/filepath"

	"facecounter/internal/attendance"
	"facecounter/internal/config"
	"facecounter/internal/handler"
	"facecounter/internal/logger"
	"facecounter/internal/middleware"
	ws "facecounter/internal/service/websocket"
)

// StaticDir holds the browser pages.
const StaticDir = "static"

var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDir, filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers static file serving, the viewer websocket, the
// attendance API and wraps the mux with the authentication middleware.
func SetupRoutes(state *attendance.State, hub *ws.HubService, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDir))))

	// Live view and counter
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(hub, logger))
	mux.HandleFunc("/api/count", handler.CountHandler(state, logger))
	mux.HandleFunc("/api/session", handler.SessionHandler(state, logger))

	// Attendance history
	mux.HandleFunc("/api/history", handler.HistoryHandler(state, logger))
	mux.HandleFunc("/api/history/dates", handler.HistoryDatesHandler(state, logger))

	// Snapshots
	if cfg.SnapshotDirectory != "" {
		mux.HandleFunc("/api/snapshots", handler.GetSnapshotsHandler(cfg.SnapshotDirectory, logger))
		mux.HandleFunc("/api/snapshots/view", handler.ViewSnapshotHandler(cfg.SnapshotDirectory))
		mux.HandleFunc("/api/snapshots/delete", handler.DeleteSnapshotHandler(cfg.SnapshotDirectory, logger))
		mux.HandleFunc("/api/snapshots/clear", handler.ClearSnapshotsHandler(cfg.SnapshotDirectory, logger))
	}

	// Log endpoints
	for name, file := range logFiles {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.AuthMiddleware(mux)
}
