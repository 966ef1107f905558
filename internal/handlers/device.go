package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"aphro-backend/internal/middleware"
	"aphro-backend/internal/models"
	"aphro-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// DeviceHandler handles device token registration
type DeviceHandler struct {
	pushService *services.PushService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(pushService *services.PushService) *DeviceHandler {
	return &DeviceHandler{
		pushService: pushService,
	}
}

// RegisterDeviceRequest represents the request body for device registration
type RegisterDeviceRequest struct {
	DeviceToken string `json:"device_token"`
	Platform    string `json:"platform"`
}

// RegisterDevice handles POST /api/v1/register-device
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DeviceToken == "" {
		respondError(w, "device_token is required", http.StatusBadRequest)
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	err := h.pushService.RegisterDevice(ctx, &models.DeviceToken{
		UserID:    userID,
		Token:     req.DeviceToken,
		Platform:  req.Platform,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register device token")
		respondError(w, "Failed to register device token", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Str("platform", req.Platform).Msg("Device token registered")
	respondJSON(w, http.StatusOK, map[string]string{"message": "device token registered"})
}
