package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vkarasev/datalab/internal/client/storage"
	pkgapi "github.com/vkarasev/datalab/pkg/api"
)

// Login аутентифицирует пользователя и устанавливает сессию.
// Перед запросом вычищаются остатки предыдущей сессии, чтобы старые токены
// не могли просочиться в новую. На любой ошибке сессия остается пустой.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.clearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear previous session: %w", err)
	}

	resp, err := m.api.Login(ctx, pkgapi.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	return m.establish(ctx, resp)
}

// Register регистрирует нового пользователя и устанавливает сессию.
// Контракт тот же, что у Login, только против /auth/register.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.clearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear previous session: %w", err)
	}

	resp, err := m.api.Register(ctx, pkgapi.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	return m.establish(ctx, resp)
}

// Logout clears the session. Local-only: the backend keeps no session state
// to invalidate, so no endpoint is called. Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.clearMemory()

	// Сбой durable удаления не скрываем: иначе токены остались бы на
	// диске при ответе "успех"
	if err := m.store.DeleteTokens(ctx); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}

// Bootstrap reconstructs the session from the token store and validates it
// against the backend. Any validation failure means "start logged out": the
// store and memory are fully cleared and no refresh is attempted, so a bad
// stored session cannot turn into a boot loop.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	pair, err := m.store.GetTokens(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrTokensNotFound) {
			// Нет сохраненной сессии — стартуем разлогиненными
			return nil
		}
		return fmt.Errorf("failed to read tokens: %w", err)
	}

	// Половина пары означает поврежденное хранилище; полуаутентифицированное
	// состояние недопустимо
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		slog.Warn("incomplete token pair in storage, starting logged out")
		return m.clearSession(ctx)
	}

	m.mu.Lock()
	m.accessToken = pair.AccessToken
	m.refreshToken = pair.RefreshToken
	m.mu.Unlock()

	// Валидируем сессию по /auth/me c явным токеном, мимо reauth pipeline:
	// 401 на этом пути не должен запускать refresh
	resp, err := m.api.Me(ctx, pair.AccessToken)
	if err != nil {
		m.forceLogout(ctx)
		return fmt.Errorf("session validation failed: %w", err)
	}
	if resp.User == nil {
		m.forceLogout(ctx)
		return fmt.Errorf("session validation failed: empty user in response")
	}

	m.mu.Lock()
	m.user = resp.User
	m.mu.Unlock()

	slog.Debug("session restored", "username", resp.User.Username)
	return nil
}

// establish persists the token pair and only then publishes the confirmed
// session to memory. User приходит из ответа сервера — идентичность никогда
// не восстанавливается из содержимого токена.
func (m *Manager) establish(ctx context.Context, resp *pkgapi.AuthResponse) error {
	if resp.User == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		return fmt.Errorf("malformed auth response")
	}

	if err := m.store.SaveTokens(ctx, &storage.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	m.mu.Lock()
	m.user = resp.User
	m.accessToken = resp.AccessToken
	m.refreshToken = resp.RefreshToken
	m.mu.Unlock()

	return nil
}

// clearSession сбрасывает и память, и durable хранилище
func (m *Manager) clearSession(ctx context.Context) error {
	m.clearMemory()
	if err := m.store.DeleteTokens(ctx); err != nil {
		return fmt.Errorf("failed to delete tokens: %w", err)
	}
	return nil
}

// forceLogout resets the session after an irrecoverable auth failure.
// Ошибки очистки логируются, а не возвращаются: наверх должна уйти
// исходная ошибка, из-за которой сессия сбрасывается.
func (m *Manager) forceLogout(ctx context.Context) {
	if err := m.clearSession(ctx); err != nil {
		slog.Warn("failed to clear session during forced logout", "error", err)
	}
}
