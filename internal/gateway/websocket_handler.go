package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/auth"
)

// WebSocketHandler upgrades authenticated players onto the event
// stream.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	verifier          auth.Verifier
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, verifier auth.Verifier) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm, verifier: verifier}
}

// HandleConnection verifies the caller and upgrades the connection.
// The token arrives as a query parameter because browsers cannot set
// headers on WebSocket upgrades.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}

	userID, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID); err != nil {
		log.Error().Err(err).
			Str("user_id", userID).
			Msg("failed to upgrade websocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats reports the number of open sessions.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": h.connectionManager.ConnectionCount(),
	})
}

// RegisterRoutes registers the WebSocket routes on a mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/events", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
