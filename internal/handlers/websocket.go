package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"aphro-backend/internal/middleware"
	"aphro-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by the HTTP layer
	},
}

// ChatFrame is the client→server frame on the live channel
type ChatFrame struct {
	ToUser  string `json:"to_user"`
	Content string `json:"content"`
}

// WebSocketHandler handles the per-user live message channel
type WebSocketHandler struct {
	hub         services.Presence
	chatService *services.ChatService
	validator   middleware.TokenValidator
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(hub services.Presence, chatService *services.ChatService, validator middleware.TokenValidator) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		chatService: chatService,
		validator:   validator,
	}
}

// HandleWebSocket handles GET /ws/{user_id}
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	pathUserID := chi.URLParam(r, "user_id")

	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.validator)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if userID != pathUserID {
		respondError(w, "token does not match user", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	ctx := r.Context()
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var frame ChatFrame
		if err := json.Unmarshal(messageBytes, &frame); err != nil {
			h.sendError(userID, "Invalid message format")
			continue
		}
		if frame.ToUser == "" || frame.Content == "" {
			h.sendError(userID, "to_user and content are required")
			continue
		}

		if _, err := h.chatService.Send(ctx, userID, frame.ToUser, frame.Content); err != nil {
			if errors.Is(err, services.ErrNotMatched) {
				// Inline error; the connection stays open.
				h.sendError(userID, "You can only message your matches.")
				continue
			}
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("to_user", frame.ToUser).
				Msg("Failed to send message")
			h.sendError(userID, "Failed to send message")
		}
	}
}

// sendError sends an error frame to the user through the hub, so the
// write is serialized with concurrent deliveries to the same connection
func (h *WebSocketHandler) sendError(userID, message string) {
	h.hub.SendToUser(userID, ErrorResponse{Error: message})
}
