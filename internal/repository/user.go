package repository

import (
	"context"
	"fmt"

	"aphro-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, gender, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Gender, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, gender, latitude, longitude, created_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Gender,
		&user.Latitude, &user.Longitude, &user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, gender, latitude, longitude, created_at
		FROM users
		WHERE username = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Gender,
		&user.Latitude, &user.Longitude, &user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

// UsernameExists checks if a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// UpdateLocation overwrites the user's current location
func (r *UserRepository) UpdateLocation(ctx context.Context, userID string, lat, lon float64) error {
	query := `UPDATE users SET latitude = $1, longitude = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, lat, lon, userID)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// Nearby returns users within maxMeters of the given point, ascending by
// distance, excluding the requesting user. The earth_box prefilter keeps
// the query on the location GiST index.
func (r *UserRepository) Nearby(ctx context.Context, userID string, lat, lon, maxMeters float64, offset, limit int) ([]models.NearbyUser, error) {
	query := `
		SELECT id, username,
		       earth_distance(ll_to_earth(latitude, longitude), ll_to_earth($1, $2)) AS distance
		FROM users
		WHERE id <> $3
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND earth_box(ll_to_earth($1, $2), $4) @> ll_to_earth(latitude, longitude)
		  AND earth_distance(ll_to_earth(latitude, longitude), ll_to_earth($1, $2)) <= $4
		ORDER BY distance ASC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, query, lat, lon, userID, maxMeters, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby users: %w", err)
	}
	defer rows.Close()

	var users []models.NearbyUser
	for rows.Next() {
		var u models.NearbyUser
		if err := rows.Scan(&u.UserID, &u.Username, &u.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan nearby user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nearby users: %w", err)
	}
	return users, nil
}

// Located returns every user with a known location
func (r *UserRepository) Located(ctx context.Context) ([]models.User, error) {
	query := `
		SELECT id, username, password_hash, gender, latitude, longitude, created_at
		FROM users
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query located users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Username, &user.PasswordHash, &user.Gender,
			&user.Latitude, &user.Longitude, &user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
