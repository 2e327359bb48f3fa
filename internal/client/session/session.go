package session

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vkarasev/datalab/internal/client/storage"
	pkgapi "github.com/vkarasev/datalab/pkg/api"
)

// AuthAPI defines the part of the API client the session manager needs.
// Все методы ходят мимо аутентифицированного pipeline: credential ручки
// аутентифицируются телом запроса либо явно переданным токеном и никогда
// не должны получать access token от инжектора.
type AuthAPI interface {
	// Login выполняет аутентификацию пользователя
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.AuthResponse, error)

	// Register регистрирует нового пользователя
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.AuthResponse, error)

	// Refresh обменивает refresh token на новый access token
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.RefreshResponse, error)

	// Me проверяет access token и возвращает идентичность пользователя
	Me(ctx context.Context, accessToken string) (*pkgapi.MeResponse, error)
}

// Manager is the single source of truth for the client's login state during
// one process lifetime. It owns the in-memory session (user, token pair,
// loading flag) and keeps it consistent with the durable token store.
//
// The manager is safe for concurrent use. Store writes happen before the
// matching in-memory update, so a reader that goes through the store (see
// AccessToken) always observes the freshest persisted token.
type Manager struct {
	api   AuthAPI
	store storage.TokenStorage
	sf    singleflight.Group

	mu           sync.RWMutex
	user         *pkgapi.User
	accessToken  string
	refreshToken string
	loading      bool
}

// NewManager creates a session manager over the given API client and token
// store. The session starts empty; call Bootstrap to restore a persisted one.
func NewManager(api AuthAPI, store storage.TokenStorage) *Manager {
	return &Manager{
		api:   api,
		store: store,
	}
}

// IsAuthenticated reports whether the session holds a confirmed identity.
// Всегда вычисляется из user+accessToken и нигде не хранится отдельно,
// чтобы флаг не мог разойтись с фактическим состоянием.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.accessToken != ""
}

// User returns the confirmed identity, or nil when not authenticated
func (m *Manager) User() *pkgapi.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// IsLoading reports whether bootstrap or a login/register call is in flight
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// AccessToken returns the freshest persisted access token, empty when none
// is stored. The store, not the in-memory copy, is authoritative here: a
// request retried after a refresh must carry the token written by that
// refresh, never a value captured before it started.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	pair, err := m.store.GetTokens(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrTokensNotFound) {
			return "", nil
		}
		return "", err
	}
	return pair.AccessToken, nil
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

// clearMemory сбрасывает in-memory состояние сессии
func (m *Manager) clearMemory() {
	m.mu.Lock()
	m.user = nil
	m.accessToken = ""
	m.refreshToken = ""
	m.mu.Unlock()
}
