package repository

import (
	"context"
	"fmt"

	"aphro-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, from_user, to_user, content, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.FromUser, msg.ToUser, msg.Content, msg.SentAt, msg.Read,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Conversation retrieves the messages between two users in chronological
// ascending order with pagination
func (r *MessageRepository) Conversation(ctx context.Context, userID, otherID string, offset, limit int) ([]models.Message, error) {
	query := `
		SELECT id, from_user, to_user, content, sent_at, read
		FROM messages
		WHERE (from_user = $1 AND to_user = $2)
		   OR (from_user = $2 AND to_user = $1)
		ORDER BY sent_at ASC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, userID, otherID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID, &msg.FromUser, &msg.ToUser, &msg.Content, &msg.SentAt, &msg.Read,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

// MarkRead flips the read flag on every message sent from one user to
// another. The read flag is the only permitted mutation of a message.
func (r *MessageRepository) MarkRead(ctx context.Context, fromUser, toUser string) error {
	query := `UPDATE messages SET read = TRUE WHERE from_user = $1 AND to_user = $2 AND read = FALSE`
	_, err := r.db.Exec(ctx, query, fromUser, toUser)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
