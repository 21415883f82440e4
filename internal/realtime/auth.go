package realtime

import (
	"errors"
	"net/http"
	"strings"

	"docgen/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var errMissingToken = errors.New("missing token")

// bearerToken reads the access token from the Authorization header, falling
// back to the token query parameter for browsers that cannot set headers on
// WebSocket requests.
func bearerToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", errMissingToken
		}
		return strings.TrimSpace(token), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", errMissingToken
}

// ServeWS upgrades an authenticated request. An optional batchId query
// parameter subscribes the connection to that batch right away.
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	claims, err := pkg.ValidateToken(token, jwtSecret)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var follow uuid.UUID
	if raw := r.URL.Query().Get("batchId"); raw != "" {
		if follow, err = uuid.Parse(raw); err != nil {
			http.Error(w, "invalid batchId", http.StatusBadRequest)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := NewClient(hub, conn)
	client.userID = claims.UserID
	if !enqueue(hub.done, hub.register, client) {
		conn.Close()
		return
	}
	if follow != uuid.Nil {
		client.follow(follow)
	}
	hub.logger.Debug().Uint("userId", claims.UserID).Str("batchId", r.URL.Query().Get("batchId")).Msg("Progress client connected")

	go client.WritePump()
	go client.ReadPump()
}
