package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/vkarasev/datalab/internal/client/storage"
)

// Fixed keys inside the tokens bucket
var (
	keyAccessToken  = []byte("accessToken")
	keyRefreshToken = []byte("refreshToken")
)

// Compile-time check that Storage implements TokenStorage
var _ storage.TokenStorage = (*Storage)(nil)

// GetTokens retrieves the stored token pair
func (s *Storage) GetTokens(ctx context.Context) (*storage.TokenPair, error) {
	var pair storage.TokenPair

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		access := bucket.Get(keyAccessToken)
		refresh := bucket.Get(keyRefreshToken)
		if access == nil && refresh == nil {
			return storage.ErrTokensNotFound
		}

		// Половинчатая пара возвращается как есть, классификация
		// поврежденного состояния — дело вызывающего слоя
		pair.AccessToken = string(access)
		pair.RefreshToken = string(refresh)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &pair, nil
}

// SaveTokens stores both tokens atomically in one transaction
func (s *Storage) SaveTokens(ctx context.Context, tokens *storage.TokenPair) error {
	if tokens == nil {
		return fmt.Errorf("token pair is nil")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		if err := bucket.Put(keyAccessToken, []byte(tokens.AccessToken)); err != nil {
			return fmt.Errorf("failed to save access token: %w", err)
		}
		if err := bucket.Put(keyRefreshToken, []byte(tokens.RefreshToken)); err != nil {
			return fmt.Errorf("failed to save refresh token: %w", err)
		}
		return nil
	})
}

// SaveAccessToken replaces only the access token.
// The stored refresh token stays in place: after a refresh the server keeps
// the old refresh token valid and issues only a new access token.
func (s *Storage) SaveAccessToken(ctx context.Context, accessToken string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		if err := bucket.Put(keyAccessToken, []byte(accessToken)); err != nil {
			return fmt.Errorf("failed to save access token: %w", err)
		}
		return nil
	})
}

// DeleteTokens removes both tokens in one transaction (logout)
func (s *Storage) DeleteTokens(ctx context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTokens)
		if bucket == nil {
			return fmt.Errorf("tokens bucket not found")
		}

		// Delete по отсутствующему ключу не является ошибкой,
		// поэтому повторный logout всегда проходит
		if err := bucket.Delete(keyAccessToken); err != nil {
			return fmt.Errorf("failed to delete access token: %w", err)
		}
		if err := bucket.Delete(keyRefreshToken); err != nil {
			return fmt.Errorf("failed to delete refresh token: %w", err)
		}
		return nil
	})
}
