package handlers

import (
	"encoding/json"
	"net/http"

	"aphro-backend/internal/middleware"
	"aphro-backend/internal/models"
	"aphro-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// LikeHandler handles like and match HTTP requests
type LikeHandler struct {
	matchService *services.MatchService
	pushService  *services.PushService
}

// NewLikeHandler creates a new like handler
func NewLikeHandler(matchService *services.MatchService, pushService *services.PushService) *LikeHandler {
	return &LikeHandler{
		matchService: matchService,
		pushService:  pushService,
	}
}

// LikeRequest represents the request body for submitting a like
type LikeRequest struct {
	LikerID string `json:"liker_id"`
	LikedID string `json:"liked_id"`
}

// Like handles POST /api/v1/like
func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req LikeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.LikerID != userID {
		respondError(w, "cannot like on behalf of another user", http.StatusForbidden)
		return
	}
	if req.LikedID == "" || req.LikedID == userID {
		respondError(w, "liked_id must be another user", http.StatusBadRequest)
		return
	}

	result, err := h.matchService.Like(ctx, req.LikerID, req.LikedID)
	if err != nil {
		log.Error().
			Err(err).
			Str("liker_id", req.LikerID).
			Str("liked_id", req.LikedID).
			Msg("Failed to record like")
		respondError(w, "Failed to record like", http.StatusInternalServerError)
		return
	}

	if result == services.LikeMatched {
		log.Info().
			Str("liker_id", req.LikerID).
			Str("liked_id", req.LikedID).
			Msg("Match created")
		h.pushService.NotifyMatch(ctx, req.LikerID, req.LikedID)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": result,
		"match":  result == services.LikeMatched,
	})
}

// Matches handles GET /api/v1/matches
func (h *LikeHandler) Matches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	matches, err := h.matchService.Matches(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get matches")
		respondError(w, "Failed to get matches", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// LikesHistory handles GET /api/v1/likes-history
func (h *LikeHandler) LikesHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	given, received, err := h.matchService.LikeHistory(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get like history")
		respondError(w, "Failed to get like history", http.StatusInternalServerError)
		return
	}
	if given == nil {
		given = []models.LikeHistoryEntry{}
	}
	if received == nil {
		received = []models.LikeHistoryEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"likes_given":    given,
		"likes_received": received,
	})
}

// MatchesHistory handles GET /api/v1/matches-history
func (h *LikeHandler) MatchesHistory(w http.ResponseWriter, r *http.Request) {
	h.Matches(w, r)
}
