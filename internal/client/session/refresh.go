package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers that hit an expired token at the same time share one
// refresh round-trip. Any failure is fatal for the session: the store and
// memory are fully reset before the error is returned, so the caller never
// observes a half-authenticated state.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.sf.Do("refresh", func() (any, error) {
		return nil, m.refresh(ctx)
	})
	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	// Refresh token читаем из хранилища, не из памяти: хранилище —
	// единственный источник правды между процессами
	pair, err := m.store.GetTokens(ctx)
	if err != nil {
		m.forceLogout(ctx)
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if pair.RefreshToken == "" {
		m.forceLogout(ctx)
		return errors.New("no refresh token stored")
	}

	resp, err := m.api.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		m.forceLogout(ctx)
		return fmt.Errorf("token refresh failed: %w", err)
	}
	if resp.AccessToken == "" {
		m.forceLogout(ctx)
		return errors.New("token refresh failed: empty access token in response")
	}

	// Durable запись до обновления памяти: повтор запроса читает токен
	// из хранилища и должен увидеть именно записанное здесь значение
	if err := m.store.SaveAccessToken(ctx, resp.AccessToken); err != nil {
		m.forceLogout(ctx)
		return fmt.Errorf("failed to save refreshed token: %w", err)
	}

	m.mu.Lock()
	m.accessToken = resp.AccessToken
	m.mu.Unlock()

	slog.Debug("access token refreshed")
	return nil
}
