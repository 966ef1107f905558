package handlers

import (
	"encoding/json"
	"net/http"

	"aphro-backend/internal/metrics"
	"aphro-backend/internal/middleware"
	"aphro-backend/internal/models"
	"aphro-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// GeoHandler handles location and proximity HTTP requests
type GeoHandler struct {
	geoService *services.GeoService
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(geoService *services.GeoService) *GeoHandler {
	return &GeoHandler{
		geoService: geoService,
	}
}

// UpdateLocationRequest represents the request body for a location update
type UpdateLocationRequest struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UpdateLocation handles POST /api/v1/update-location
func (h *GeoHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID != userID {
		respondError(w, "cannot update another user's location", http.StatusForbidden)
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		respondError(w, "coordinates out of range", http.StatusBadRequest)
		return
	}

	if err := h.geoService.UpdateLocation(ctx, userID, req.Latitude, req.Longitude); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update location")
		respondError(w, "Failed to update location", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "location updated"})
}

// NearbyUsers handles GET /api/v1/nearby-users
func (h *GeoHandler) NearbyUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 20)
	maxMeters := float64(queryInt(r, "max_distance", 0))

	users, err := h.geoService.Nearby(ctx, userID, maxMeters, offset, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get nearby users")
		respondError(w, "Failed to get nearby users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []models.NearbyUser{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"nearby_users": users})
}

// DetectCrossings handles GET /detect-crossings
func (h *GeoHandler) DetectCrossings(w http.ResponseWriter, r *http.Request) {
	detected, err := h.geoService.DetectCrossings(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to detect crossings")
		respondError(w, "Failed to detect crossings", http.StatusInternalServerError)
		return
	}
	metrics.CrossingsDetected.Add(float64(len(detected)))
	if detected == nil {
		detected = []models.Crossing{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"crossings": detected})
}
