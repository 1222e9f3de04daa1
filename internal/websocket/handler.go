package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/dukerupert/jotter/internal/auth"
	"github.com/dukerupert/jotter/internal/session"
)

// HandleWebSocket upgrades an authenticated request and runs it as a Hub
// client for the signed-in session. Only same-origin pages may connect.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || ac.UserID == 0 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		NewClient(hub, conn, ac.UserID, session.Hash(ac.Token), ac.ExpiresAt).Run(r.Context())
	}
}
