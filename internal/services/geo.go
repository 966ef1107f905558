package services

import (
	"context"
	"fmt"
	"math"

	"aphro-backend/internal/models"
)

const earthRadiusMeters = 6371000

// Haversine returns the great-circle distance in meters between two GPS
// points. Symmetric; zero for identical points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// GeoStore is the persistence surface the geo service needs
type GeoStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateLocation(ctx context.Context, userID string, lat, lon float64) error
	Nearby(ctx context.Context, userID string, lat, lon, maxMeters float64, offset, limit int) ([]models.NearbyUser, error)
	Located(ctx context.Context) ([]models.User, error)
}

// GeoService handles location updates, proximity queries and crossing
// detection
type GeoService struct {
	users        GeoStore
	radiusMeters float64
}

// NewGeoService creates a new geo service with the given crossing radius
func NewGeoService(users GeoStore, radiusMeters float64) *GeoService {
	return &GeoService{
		users:        users,
		radiusMeters: radiusMeters,
	}
}

// UpdateLocation overwrites the user's current location
func (s *GeoService) UpdateLocation(ctx context.Context, userID string, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates out of range")
	}
	return s.users.UpdateLocation(ctx, userID, lat, lon)
}

// Nearby returns the users within maxMeters of the given user, ascending
// by distance, excluding the user themselves. A user without a stored
// location gets an empty result.
func (s *GeoService) Nearby(ctx context.Context, userID string, maxMeters float64, offset, limit int) ([]models.NearbyUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Latitude == nil || user.Longitude == nil {
		return nil, nil
	}
	if maxMeters <= 0 {
		maxMeters = s.radiusMeters
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.Nearby(ctx, userID, *user.Latitude, *user.Longitude, maxMeters, offset, limit)
}

// DetectCrossings scans every located user and emits each unordered pair
// within the crossing radius exactly once. O(n²) over located users;
// acceptable while the user base is small. A spatial grid would slot in
// here without changing the emitted pairs.
func (s *GeoService) DetectCrossings(ctx context.Context) ([]models.Crossing, error) {
	users, err := s.users.Located(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load located users: %w", err)
	}

	var detected []models.Crossing
	for i, a := range users {
		for _, b := range users[i+1:] {
			d := Haversine(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
			if d <= s.radiusMeters {
				detected = append(detected, models.Crossing{
					UserAID:  a.ID,
					UserBID:  b.ID,
					Distance: d,
				})
			}
		}
	}
	return detected, nil
}
