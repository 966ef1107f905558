package services

import (
	"context"
	"fmt"
	"time"

	"aphro-backend/internal/models"
)

// LikeResult is the outcome of a like submission
type LikeResult string

const (
	LikeAlready LikeResult = "already_liked"
	LikeMatched LikeResult = "matched"
	LikePending LikeResult = "pending"
)

// LikeStore is the persistence surface the match service needs
type LikeStore interface {
	Insert(ctx context.Context, like *models.Like) (bool, error)
	Exists(ctx context.Context, likerID, likedID string) (bool, error)
	MatchesOf(ctx context.Context, userID string) ([]string, error)
	Given(ctx context.Context, userID string) ([]models.LikeHistoryEntry, error)
	Received(ctx context.Context, userID string) ([]models.LikeHistoryEntry, error)
}

// MatchService records like edges and evaluates reciprocity. A match is
// not stored: it exists iff both directed edges exist.
type MatchService struct {
	likes LikeStore
	now   func() time.Time
}

// NewMatchService creates a new match service
func NewMatchService(likes LikeStore) *MatchService {
	return &MatchService{
		likes: likes,
		now:   time.Now,
	}
}

// Like records a like edge and reports the resulting state. The insert
// runs before the reciprocal check, so of two concurrent mutual likes
// the later check always sees the earlier insert: at least one caller
// observes matched.
func (s *MatchService) Like(ctx context.Context, likerID, likedID string) (LikeResult, error) {
	if likerID == likedID {
		return "", fmt.Errorf("cannot like yourself")
	}

	inserted, err := s.likes.Insert(ctx, &models.Like{
		LikerID:   likerID,
		LikedID:   likedID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to record like: %w", err)
	}
	if !inserted {
		return LikeAlready, nil
	}

	reciprocal, err := s.likes.Exists(ctx, likedID, likerID)
	if err != nil {
		return "", fmt.Errorf("failed to check reciprocal like: %w", err)
	}
	if reciprocal {
		return LikeMatched, nil
	}
	return LikePending, nil
}

// Matches returns the ids of every user matched with the given user
func (s *MatchService) Matches(ctx context.Context, userID string) ([]string, error) {
	return s.likes.MatchesOf(ctx, userID)
}

// IsMatch reports whether two users are matched
func (s *MatchService) IsMatch(ctx context.Context, userID, otherID string) (bool, error) {
	given, err := s.likes.Exists(ctx, userID, otherID)
	if err != nil {
		return false, err
	}
	if !given {
		return false, nil
	}
	return s.likes.Exists(ctx, otherID, userID)
}

// LikeHistory returns the likes given and received by a user, each entry
// annotated with whether it belongs to a match
func (s *MatchService) LikeHistory(ctx context.Context, userID string) (given, received []models.LikeHistoryEntry, err error) {
	given, err = s.likes.Given(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get likes given: %w", err)
	}
	received, err = s.likes.Received(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get likes received: %w", err)
	}
	return given, received, nil
}
