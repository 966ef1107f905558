package services

import (
	"context"
	"testing"

	"aphro-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeoStore struct {
	users []models.User

	nearbyArgs struct {
		lat, lon, maxMeters float64
		offset, limit       int
	}
	nearbyResult []models.NearbyUser
}

func (f *fakeGeoStore) GetByID(_ context.Context, id string) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			return &f.users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeGeoStore) UpdateLocation(_ context.Context, userID string, lat, lon float64) error {
	for i := range f.users {
		if f.users[i].ID == userID {
			f.users[i].Latitude = &lat
			f.users[i].Longitude = &lon
			return nil
		}
	}
	return ErrUserNotFound
}

func (f *fakeGeoStore) Nearby(_ context.Context, _ string, lat, lon, maxMeters float64, offset, limit int) ([]models.NearbyUser, error) {
	f.nearbyArgs.lat = lat
	f.nearbyArgs.lon = lon
	f.nearbyArgs.maxMeters = maxMeters
	f.nearbyArgs.offset = offset
	f.nearbyArgs.limit = limit
	return f.nearbyResult, nil
}

func (f *fakeGeoStore) Located(_ context.Context) ([]models.User, error) {
	var located []models.User
	for _, u := range f.users {
		if u.Latitude != nil && u.Longitude != nil {
			located = append(located, u)
		}
	}
	return located, nil
}

func locatedUser(id string, lat, lon float64) models.User {
	return models.User{ID: id, Username: id, Latitude: &lat, Longitude: &lon}
}

func TestHaversine_IdenticalPoints(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{48.8566, 2.3522},
		{-33.8688, 151.2093},
	}
	for _, p := range points {
		assert.Zero(t, Haversine(p[0], p[1], p[0], p[1]))
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	d1 := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	d2 := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	assert.Equal(t, d1, d2)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Paris to London is roughly 344 km.
	d := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, 344000, d, 2000)
}

func TestDetectCrossings_PairWithinThreshold(t *testing.T) {
	store := &fakeGeoStore{users: []models.User{
		// ~55 m apart at the equator.
		locatedUser("a", 0, 0),
		locatedUser("b", 0.0005, 0),
		// Far away.
		locatedUser("c", 10, 10),
	}}
	svc := NewGeoService(store, 100)

	detected, err := svc.DetectCrossings(context.Background())
	require.NoError(t, err)
	require.Len(t, detected, 1)
	assert.Equal(t, "a", detected[0].UserAID)
	assert.Equal(t, "b", detected[0].UserBID)
	assert.LessOrEqual(t, detected[0].Distance, 100.0)
}

func TestDetectCrossings_PairEmittedOncePerRun(t *testing.T) {
	store := &fakeGeoStore{users: []models.User{
		locatedUser("a", 0, 0),
		locatedUser("b", 0.0005, 0),
	}}
	svc := NewGeoService(store, 100)

	detected, err := svc.DetectCrossings(context.Background())
	require.NoError(t, err)
	require.Len(t, detected, 1)

	// Reversing the scan order changes which id lands in which slot but
	// still yields a single pair.
	store.users[0], store.users[1] = store.users[1], store.users[0]
	detected, err = svc.DetectCrossings(context.Background())
	require.NoError(t, err)
	require.Len(t, detected, 1)
}

func TestDetectCrossings_ExcludesUnlocatedUsers(t *testing.T) {
	store := &fakeGeoStore{users: []models.User{
		locatedUser("a", 0, 0),
		{ID: "nolocation", Username: "nolocation"},
	}}
	svc := NewGeoService(store, 100)

	detected, err := svc.DetectCrossings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, detected)
}

func TestNearby_NoLocationReturnsEmpty(t *testing.T) {
	store := &fakeGeoStore{users: []models.User{{ID: "a", Username: "a"}}}
	svc := NewGeoService(store, 100)

	users, err := svc.Nearby(context.Background(), "a", 0, 0, 20)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestNearby_AppliesDefaults(t *testing.T) {
	store := &fakeGeoStore{users: []models.User{locatedUser("a", 1, 2)}}
	svc := NewGeoService(store, 100)

	_, err := svc.Nearby(context.Background(), "a", 0, -5, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, store.nearbyArgs.lat)
	assert.Equal(t, 2.0, store.nearbyArgs.lon)
	assert.Equal(t, 100.0, store.nearbyArgs.maxMeters)
	assert.Equal(t, 0, store.nearbyArgs.offset)
	assert.Equal(t, 20, store.nearbyArgs.limit)
}
