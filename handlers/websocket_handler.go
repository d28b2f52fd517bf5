package handlers

import (
	"log/slog"
	"net/http"

	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/realtime"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin политика решается на уровне reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub  *realtime.Hub
	auth *middleware.Authenticator
}

func NewWebSocketHandler(hub *realtime.Hub, auth *middleware.Authenticator) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, auth: auth}
}

// Serve апгрейдит соединение. Браузерный WebSocket API не умеет ставить
// заголовки, поэтому токен приходит query-параметром.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		unauthorizedResponse(w, r, "token query parameter is required")
		return
	}

	claims, err := h.auth.ParseTokenClaims(token)
	if err != nil {
		unauthorizedResponse(w, r, "invalid token")
		return
	}

	ctx := middleware.ContextWithClaims(r.Context(), claims)
	userID, err := middleware.GetUserIDFromContext(ctx)
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту сам.
		slog.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	realtime.NewClient(h.hub, conn, userID)
}
