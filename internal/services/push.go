package services

import (
	"context"
	"fmt"

	"aphro-backend/internal/config"
	"aphro-backend/internal/metrics"
	"aphro-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// DeviceStore is the device token persistence surface
type DeviceStore interface {
	Upsert(ctx context.Context, token *models.DeviceToken) error
	ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error)
}

// APNSClient is the push transport. Satisfied by *apns2.Client.
type APNSClient interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

// PushService fans out push notifications to every device a user has
// registered. Per-token failures are logged and never abort the fan-out.
type PushService struct {
	devices DeviceStore
	client  APNSClient
	topic   string
}

// NewPushService creates a push service. Without APNs credentials the
// service still registers tokens but skips delivery.
func NewPushService(devices DeviceStore, cfg config.APNSConfig) *PushService {
	s := &PushService{devices: devices, topic: cfg.Topic}

	if cfg.KeyFile == "" {
		log.Warn().Msg("No APNs key configured, push notifications disabled")
		return s
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load APNs key, push notifications disabled")
		return s
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	s.client = client
	return s
}

// RegisterDevice upserts a device token for a user
func (s *PushService) RegisterDevice(ctx context.Context, dt *models.DeviceToken) error {
	return s.devices.Upsert(ctx, dt)
}

// NotifyMatch notifies both sides of a new match on every registered
// device
func (s *PushService) NotifyMatch(ctx context.Context, userIDs ...string) {
	for _, uid := range userIDs {
		s.fanOut(ctx, uid, "New match!", "You have a new match 🎉", map[string]interface{}{
			"type": "match",
		})
	}
}

// NotifyMessage notifies the recipient of a new chat message
func (s *PushService) NotifyMessage(ctx context.Context, toUser, fromUser string) {
	s.fanOut(ctx, toUser, "New message", fmt.Sprintf("You have a new message from %s", fromUser), map[string]interface{}{
		"type":      "message",
		"from_user": fromUser,
	})
}

func (s *PushService) fanOut(ctx context.Context, userID, title, body string, data map[string]interface{}) {
	tokens, err := s.devices.ListByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list device tokens")
		return
	}

	for _, t := range tokens {
		if err := s.push(t, title, body, data); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("platform", t.Platform).
				Msg("Failed to send push notification")
			continue
		}
		metrics.PushNotificationsTotal.Inc()
	}
}

func (s *PushService) push(dt models.DeviceToken, title, body string, data map[string]interface{}) error {
	if s.client == nil {
		return nil
	}
	if dt.Platform != "ios" {
		log.Debug().Str("platform", dt.Platform).Msg("No push transport for platform, skipping")
		return nil
	}

	p := payload.NewPayload().AlertTitle(title).AlertBody(body)
	for k, v := range data {
		p.Custom(k, v)
	}

	res, err := s.client.Push(&apns2.Notification{
		DeviceToken: dt.Token,
		Topic:       s.topic,
		Payload:     p,
	})
	if err != nil {
		return err
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %s", res.Reason)
	}
	return nil
}
