package session

import "errors"

// Sentinel errors for store operations, checked with errors.Is().
var (
	// ErrTokenNotFound indicates the session token has no row in tokens.
	ErrTokenNotFound = errors.New("session token not found")

	// ErrDuplicateToken indicates the token was already issued.
	ErrDuplicateToken = errors.New("session token already exists")
)
