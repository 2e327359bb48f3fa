package storage

import "context"

// TokenStorage defines interface for persisting the client's token pair.
// This is the lowest storage layer - it stores raw strings and performs no
// validation and no expiry tracking; token expiry is discovered reactively
// through 401 responses.
type TokenStorage interface {
	// GetTokens retrieves the stored token pair as-is.
	// Returns ErrTokensNotFound if nothing is stored. A half-present pair
	// (corrupted storage) is returned with the missing field empty; the
	// caller decides what to do with it.
	GetTokens(ctx context.Context) (*TokenPair, error)

	// SaveTokens stores both tokens in a single transaction
	SaveTokens(ctx context.Context, tokens *TokenPair) error

	// SaveAccessToken replaces only the access token, keeping the stored
	// refresh token. Used after a successful token refresh.
	SaveAccessToken(ctx context.Context, accessToken string) error

	// DeleteTokens removes both tokens in a single transaction.
	// Deleting an empty store is not an error.
	DeleteTokens(ctx context.Context) error
}

// TokenPair holds the two bearer credentials the client keeps between runs
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
