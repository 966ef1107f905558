package models

import "time"

// User represents a user in the system. Latitude/Longitude hold the
// current location; nil until the first location update, overwritten on
// each subsequent one.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Gender       string    `json:"gender"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Like is a directed like edge; unique per (liker, liked) pair
type Like struct {
	LikerID   string    `json:"liker_id"`
	LikedID   string    `json:"liked_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is a chat message between two matched users. Immutable once
// persisted except for the Read flag.
type Message struct {
	ID       string    `json:"id"`
	FromUser string    `json:"from_user"`
	ToUser   string    `json:"to_user"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"timestamp"`
	Read     bool      `json:"read"`
}

// DeviceToken addresses a push notification to one device; a user can
// register several
type DeviceToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"device_token"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// RefreshToken is a single-use opaque credential with an expiry
type RefreshToken struct {
	Token     string    `json:"refresh_token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NearbyUser is one entry of a proximity query result
type NearbyUser struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Distance float64 `json:"distance_meters"`
}

// Crossing is a pairwise proximity event detected during one scan
type Crossing struct {
	UserAID  string  `json:"user_a_id"`
	UserBID  string  `json:"user_b_id"`
	Distance float64 `json:"distance_meters"`
}

// LikeHistoryEntry annotates one like edge with whether it belongs to a
// match
type LikeHistoryEntry struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Match     bool      `json:"match"`
}
