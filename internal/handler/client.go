package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"facecounter/internal/logger"
	ws "facecounter/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler handles viewer connections over WebSocket and
// registers them in the HubService to receive frames and sightings.
func ViewWebsocketHandler(hub *ws.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		id := hub.Register(connection)
		if id == "" {
			return
		}
		defer hub.Unregister(id)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer %s disconnected normally", id)
				} else {
					logger.Warning("Viewer %s disconnected: %v", id, err)
				}
				break
			}
		}
	}
}
