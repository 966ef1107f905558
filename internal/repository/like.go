package repository

import (
	"context"
	"fmt"

	"aphro-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LikeRepository handles database operations for like edges
type LikeRepository struct {
	db *pgxpool.Pool
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{db: db}
}

// Insert inserts a like edge. Returns false without error when the edge
// already exists; the unique constraint on (liker_id, liked_id) makes
// the insert the atomic point of the like operation.
func (r *LikeRepository) Insert(ctx context.Context, like *models.Like) (bool, error) {
	query := `
		INSERT INTO likes (liker_id, liked_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (liker_id, liked_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, like.LikerID, like.LikedID, like.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert like: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// Exists checks for a directed like edge
func (r *LikeRepository) Exists(ctx context.Context, likerID, likedID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM likes WHERE liker_id = $1 AND liked_id = $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, likerID, likedID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like existence: %w", err)
	}
	return exists, nil
}

// MatchesOf returns every user the given user has a reciprocal like with
func (r *LikeRepository) MatchesOf(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT l1.liked_id
		FROM likes l1
		JOIN likes l2 ON l2.liker_id = l1.liked_id AND l2.liked_id = l1.liker_id
		WHERE l1.liker_id = $1
		ORDER BY l1.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

// Given returns likes given by the user, each annotated with whether the
// liked user liked back
func (r *LikeRepository) Given(ctx context.Context, userID string) ([]models.LikeHistoryEntry, error) {
	query := `
		SELECT l.liked_id, l.created_at,
		       EXISTS(SELECT 1 FROM likes r WHERE r.liker_id = l.liked_id AND r.liked_id = l.liker_id)
		FROM likes l
		WHERE l.liker_id = $1
		ORDER BY l.created_at
	`
	return r.history(ctx, query, userID)
}

// Received returns likes received by the user, each annotated with
// whether the user liked back
func (r *LikeRepository) Received(ctx context.Context, userID string) ([]models.LikeHistoryEntry, error) {
	query := `
		SELECT l.liker_id, l.created_at,
		       EXISTS(SELECT 1 FROM likes r WHERE r.liker_id = l.liked_id AND r.liked_id = l.liker_id)
		FROM likes l
		WHERE l.liked_id = $1
		ORDER BY l.created_at
	`
	return r.history(ctx, query, userID)
}

func (r *LikeRepository) history(ctx context.Context, query, userID string) ([]models.LikeHistoryEntry, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query like history: %w", err)
	}
	defer rows.Close()

	var entries []models.LikeHistoryEntry
	for rows.Next() {
		var e models.LikeHistoryEntry
		if err := rows.Scan(&e.UserID, &e.CreatedAt, &e.Match); err != nil {
			return nil, fmt.Errorf("failed to scan like history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating like history: %w", err)
	}
	return entries, nil
}
