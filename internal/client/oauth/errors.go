package oauth

import "errors"

var (
	// ErrInvalidCredentials means the server rejected the username/password
	// pair. Surfaced to the user, never retried.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRefreshRejected means the refresh token is expired or revoked.
	// The session guard treats this as a forced logout.
	ErrRefreshRejected = errors.New("refresh token rejected")

	// ErrNetwork covers transport failures and server-side errors during a
	// token exchange. The caller may retry manually.
	ErrNetwork = errors.New("authorization endpoint unreachable")
)
