package storage

import "errors"

// Common client storage errors
var (
	// ErrTokensNotFound indicates that no token pair is stored
	ErrTokensNotFound = errors.New("tokens not found")
)
