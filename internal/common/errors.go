// Package common defines shared constants and sentinel errors used across
// eventauth components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrDigestExists    = errors.New("token digest already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Login errors. Unknown user, wrong password and deactivated account all
	// surface as ErrInvalidCredentials so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access-token errors (stateless verification).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Refresh-token lifecycle errors.
	ErrRefreshTokenInvalid = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)
