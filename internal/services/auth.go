package services

import (
	"context"
	"fmt"
	"time"

	"aphro-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the user persistence surface the auth service needs
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// TokenStore is the refresh token persistence surface. Get returns nil
// without error for an absent token; Delete reports whether a row was
// removed.
type TokenStore interface {
	Insert(ctx context.Context, token *models.RefreshToken) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenPair is an access token plus its refresh token
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// AuthService handles account creation, login, and the refresh token
// lifecycle. Access tokens are stateless JWTs; refresh tokens are opaque,
// persisted, and single-use.
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, tokens TokenStore, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Register creates a new user with a hashed password
func (s *AuthService) Register(ctx context.Context, username, password, gender string) (*models.User, error) {
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Gender:       gender,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a fresh token pair
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(ctx, user.ID)
}

// Refresh rotates a refresh token: the old token is deleted, a new pair
// is issued. A reused token after rotation fails.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*TokenPair, error) {
	token, err := s.tokens.Get(ctx, oldToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if token == nil || token.ExpiresAt.Before(s.now()) {
		return nil, ErrRefreshInvalid
	}

	deleted, err := s.tokens.Delete(ctx, oldToken)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !deleted {
		// Lost the race against a concurrent refresh of the same token.
		return nil, ErrRefreshInvalid
	}

	return s.issue(ctx, token.UserID)
}

// Revoke deletes a refresh token
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	deleted, err := s.tokens.Delete(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !deleted {
		return ErrRefreshNotFound
	}
	return nil
}

// SweepExpired deletes all expired refresh tokens; run periodically
func (s *AuthService) SweepExpired(ctx context.Context) error {
	n, err := s.tokens.DeleteExpired(ctx, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("Expired refresh tokens swept")
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.GenerateJWT(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh := &models.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.tokens.Insert(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
	}, nil
}

// GenerateJWT generates a signed access token for a user
func (s *AuthService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.accessTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates an access token and returns the user ID
func (s *AuthService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}
	return userID, nil
}
