package repository

import (
	"context"
	"fmt"

	"aphro-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DeviceRepository handles database operations for device tokens
type DeviceRepository struct {
	db *pgxpool.Pool
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a device token, updating the platform on re-registration
func (r *DeviceRepository) Upsert(ctx context.Context, token *models.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`
	_, err := r.db.Exec(ctx, query,
		token.UserID, token.Token, token.Platform, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device token: %w", err)
	}
	return nil
}

// ListByUser retrieves all device tokens registered for a user
func (r *DeviceRepository) ListByUser(ctx context.Context, userID string) ([]models.DeviceToken, error) {
	query := `
		SELECT user_id, token, platform, created_at
		FROM device_tokens
		WHERE user_id = $1
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.DeviceToken
	for rows.Next() {
		var t models.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device tokens: %w", err)
	}
	return tokens, nil
}
