package services

import "errors"

// Service-level errors; handlers map these to HTTP status codes with
// errors.Is.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRefreshInvalid     = errors.New("refresh token invalid or expired")
	ErrRefreshNotFound    = errors.New("refresh token not found")
	ErrNotMatched         = errors.New("users are not matched")
)
