package services

import (
	"context"
	"fmt"
	"time"

	"aphro-backend/internal/metrics"
	"aphro-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageStore is the message persistence surface
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	Conversation(ctx context.Context, userID, otherID string, offset, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, fromUser, toUser string) error
}

// Matcher answers whether two users are matched
type Matcher interface {
	IsMatch(ctx context.Context, userID, otherID string) (bool, error)
}

// Pusher fans out push notifications
type Pusher interface {
	NotifyMessage(ctx context.Context, toUser, fromUser string)
}

// ChatService authorizes, persists and delivers chat messages. A message
// is persisted before any delivery is attempted; live delivery and push
// fan-out are independent and both always attempted.
type ChatService struct {
	messages MessageStore
	matches  Matcher
	presence Presence
	push     Pusher
	now      func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(messages MessageStore, matches Matcher, presence Presence, push Pusher) *ChatService {
	return &ChatService{
		messages: messages,
		matches:  matches,
		presence: presence,
		push:     push,
		now:      time.Now,
	}
}

// Send delivers a message from one user to another. Fails with
// ErrNotMatched unless the recipient is one of the sender's matches.
func (s *ChatService) Send(ctx context.Context, from, to, content string) (*models.Message, error) {
	matched, err := s.matches.IsMatch(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to check match: %w", err)
	}
	if !matched {
		return nil, ErrNotMatched
	}

	msg := &models.Message{
		ID:       uuid.New().String(),
		FromUser: from,
		ToUser:   to,
		Content:  content,
		SentAt:   s.now(),
		Read:     false,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	metrics.MessagesTotal.Inc()

	// The message is authoritative once persisted; delivery failures
	// below do not surface to the sender.
	if err := s.presence.SendToUser(to, msg); err != nil {
		log.Debug().
			Str("to_user", to).
			Msg("Recipient has no live connection, relying on push")
	}

	s.push.NotifyMessage(ctx, to, from)

	return msg, nil
}

// History returns one chronological page of the conversation between two
// users and marks the incoming side of that conversation as read
func (s *ChatService) History(ctx context.Context, userID, otherID string, offset, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messages.Conversation(ctx, userID, otherID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if err := s.messages.MarkRead(ctx, otherID, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to mark messages read")
	}
	return messages, nil
}
