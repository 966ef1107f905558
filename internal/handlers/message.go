package handlers

import (
	"net/http"

	"aphro-backend/internal/middleware"
	"aphro-backend/internal/models"
	"aphro-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MessageHandler handles message history HTTP requests
type MessageHandler struct {
	chatService *services.ChatService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(chatService *services.ChatService) *MessageHandler {
	return &MessageHandler{
		chatService: chatService,
	}
}

// GetMessages handles GET /api/v1/messages/{other_user_id}
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	otherID := chi.URLParam(r, "other_user_id")

	if otherID == "" {
		respondError(w, "other_user_id is required", http.StatusBadRequest)
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)

	messages, err := h.chatService.History(ctx, userID, otherID, offset, limit)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("other_user_id", otherID).
			Msg("Failed to get messages")
		respondError(w, "Failed to get messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
