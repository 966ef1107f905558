package services

import (
	"context"
	"testing"
	"time"

	"aphro-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byID       map[string]*models.User
	byUsername map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:       make(map[string]*models.User),
		byUsername: make(map[string]*models.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.byID[user.ID] = user
	f.byUsername[user.Username] = user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := f.byUsername[username]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	_, ok := f.byUsername[username]
	return ok, nil
}

type fakeTokenStore struct {
	tokens map[string]*models.RefreshToken
	getErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*models.RefreshToken)}
}

func (f *fakeTokenStore) Insert(_ context.Context, token *models.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenStore) Get(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.tokens[token], nil
}

func (f *fakeTokenStore) Delete(_ context.Context, token string) (bool, error) {
	if _, ok := f.tokens[token]; !ok {
		return false, nil
	}
	delete(f.tokens, token)
	return true, nil
}

func (f *fakeTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range f.tokens {
		if t.ExpiresAt.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

func newTestAuthService(tokens *fakeTokenStore) (*AuthService, *fakeUserStore) {
	users := newFakeUserStore()
	svc := NewAuthService(users, tokens, "test-secret", 30*time.Minute, 7*24*time.Hour)
	return svc, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestAuthService(newFakeTokenStore())
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "s3cret", "F")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	_, err = svc.Register(ctx, "alice", "other", "F")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	pair, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateJWT_Roundtrip(t *testing.T) {
	svc, _ := newTestAuthService(newFakeTokenStore())

	token, err := svc.GenerateJWT("user-1")
	require.NoError(t, err)

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = svc.ValidateJWT("garbage")
	assert.Error(t, err)
}

func TestRefresh_SingleUse(t *testing.T) {
	tokens := newFakeTokenStore()
	svc, _ := newTestAuthService(tokens)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret", "F")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The old token was rotated out and must not work twice.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)

	// The replacement still works.
	_, err = svc.Refresh(ctx, newPair.RefreshToken)
	require.NoError(t, err)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	tokens := newFakeTokenStore()
	svc, _ := newTestAuthService(tokens)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret", "F")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshInvalid)
}

func TestRefresh_StoreFailureIsNotInvalidToken(t *testing.T) {
	tokens := newFakeTokenStore()
	svc, _ := newTestAuthService(tokens)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret", "F")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	// A database outage must surface as an internal error, not as a
	// rejected token.
	tokens.getErr = assert.AnError
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRefreshInvalid)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRevoke(t *testing.T) {
	tokens := newFakeTokenStore()
	svc, _ := newTestAuthService(tokens)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "s3cret", "F")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	assert.ErrorIs(t, svc.Revoke(ctx, pair.RefreshToken), ErrRefreshNotFound)
}

func TestSweepExpired(t *testing.T) {
	tokens := newFakeTokenStore()
	svc, _ := newTestAuthService(tokens)
	ctx := context.Background()

	now := time.Now()
	tokens.tokens["live"] = &models.RefreshToken{Token: "live", UserID: "u", ExpiresAt: now.Add(time.Hour)}
	tokens.tokens["dead"] = &models.RefreshToken{Token: "dead", UserID: "u", ExpiresAt: now.Add(-time.Hour)}

	require.NoError(t, svc.SweepExpired(ctx))
	assert.Contains(t, tokens.tokens, "live")
	assert.NotContains(t, tokens.tokens, "dead")
}
