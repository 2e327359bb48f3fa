package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkarasev/datalab/internal/client/storage"
	pkgapi "github.com/vkarasev/datalab/pkg/api"
)

// mockTokenStorage implements storage.TokenStorage for testing
type mockTokenStorage struct {
	mu        sync.Mutex
	pair      *storage.TokenPair
	getErr    error
	saveErr   error
	deleteErr error
}

func (m *mockTokenStorage) GetTokens(ctx context.Context) (*storage.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.pair == nil {
		return nil, storage.ErrTokensNotFound
	}
	// Возвращаем копию
	pair := *m.pair
	return &pair, nil
}

func (m *mockTokenStorage) SaveTokens(ctx context.Context, tokens *storage.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	pair := *tokens
	m.pair = &pair
	return nil
}

func (m *mockTokenStorage) SaveAccessToken(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	// Как и BoltDB-реализация: refresh token остается на месте
	if m.pair == nil {
		m.pair = &storage.TokenPair{}
	}
	m.pair.AccessToken = accessToken
	return nil
}

func (m *mockTokenStorage) DeleteTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.pair = nil
	return nil
}

func (m *mockTokenStorage) stored() *storage.TokenPair {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pair == nil {
		return nil
	}
	pair := *m.pair
	return &pair
}

// mockAuthAPI implements AuthAPI for testing
type mockAuthAPI struct {
	mu sync.Mutex

	loginResp    *pkgapi.AuthResponse
	loginErr     error
	registerResp *pkgapi.AuthResponse
	registerErr  error
	refreshResp  *pkgapi.RefreshResponse
	refreshErr   error
	refreshDelay time.Duration
	meResp       *pkgapi.MeResponse
	meErr        error

	refreshCalls     int
	lastRefreshToken string
	meCalls          int
	lastMeToken      string
}

func (m *mockAuthAPI) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.AuthResponse, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResp, nil
}

func (m *mockAuthAPI) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.AuthResponse, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.registerResp, nil
}

func (m *mockAuthAPI) Refresh(ctx context.Context, refreshToken string) (*pkgapi.RefreshResponse, error) {
	m.mu.Lock()
	m.refreshCalls++
	m.lastRefreshToken = refreshToken
	delay := m.refreshDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.refreshResp, nil
}

func (m *mockAuthAPI) Me(ctx context.Context, accessToken string) (*pkgapi.MeResponse, error) {
	m.mu.Lock()
	m.meCalls++
	m.lastMeToken = accessToken
	m.mu.Unlock()

	if m.meErr != nil {
		return nil, m.meErr
	}
	return m.meResp, nil
}

func (m *mockAuthAPI) refreshCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

var testUser = &pkgapi.User{
	ID:       1,
	Username: "testuser",
	Email:    "a@b.com",
}

func TestNewManager(t *testing.T) {
	store := &mockTokenStorage{}
	api := &mockAuthAPI{}

	mgr := NewManager(api, store)

	require.NotNil(t, mgr)
	assert.False(t, mgr.IsAuthenticated())
	assert.False(t, mgr.IsLoading())
	assert.Nil(t, mgr.User())
}

func TestManager_Login_Success(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{}
	api := &mockAuthAPI{
		loginResp: &pkgapi.AuthResponse{
			User:         testUser,
			AccessToken:  "A1",
			RefreshToken: "R1",
		},
	}

	mgr := NewManager(api, store)

	err := mgr.Login(ctx, "a@b.com", "pw")
	require.NoError(t, err)

	// Сессия установлена
	assert.True(t, mgr.IsAuthenticated())
	assert.Equal(t, testUser, mgr.User())
	assert.False(t, mgr.IsLoading())

	// В хранилище лежит ровно та пара, что пришла в ответе
	stored := store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "A1", stored.AccessToken)
	assert.Equal(t, "R1", stored.RefreshToken)
}

func TestManager_Login_APIError(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{}
	api := &mockAuthAPI{
		loginErr: fmt.Errorf("server error (401): invalid credentials"),
	}

	mgr := NewManager(api, store)

	err := mgr.Login(ctx, "a@b.com", "wrong")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.False(t, mgr.IsAuthenticated())
	assert.Nil(t, store.stored())
	assert.False(t, mgr.IsLoading())
}

func TestManager_Login_MalformedResponse(t *testing.T) {
	tests := []struct {
		resp *pkgapi.AuthResponse
		name string
	}{
		{
			name: "no user",
			resp: &pkgapi.AuthResponse{AccessToken: "A1", RefreshToken: "R1"},
		},
		{
			name: "no access token",
			resp: &pkgapi.AuthResponse{User: testUser, RefreshToken: "R1"},
		},
		{
			name: "no refresh token",
			resp: &pkgapi.AuthResponse{User: testUser, AccessToken: "A1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockTokenStorage{}
			api := &mockAuthAPI{loginResp: tt.resp}
			mgr := NewManager(api, store)

			err := mgr.Login(context.Background(), "a@b.com", "pw")

			assert.Error(t, err)
			assert.False(t, mgr.IsAuthenticated())
			assert.Nil(t, store.stored())
		})
	}
}

func TestManager_Login_ClearsPreviousSession(t *testing.T) {
	ctx := context.Background()

	// В хранилище лежат токены предыдущей сессии
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "stale-A", RefreshToken: "stale-R"},
	}
	api := &mockAuthAPI{
		loginErr: fmt.Errorf("network error"),
	}

	mgr := NewManager(api, store)

	err := mgr.Login(ctx, "a@b.com", "pw")
	assert.Error(t, err)

	// Старые токены вычищены еще до запроса и не могли протечь дальше
	assert.Nil(t, store.stored())
}

func TestManager_Register_Success(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{}
	api := &mockAuthAPI{
		registerResp: &pkgapi.AuthResponse{
			User:         testUser,
			AccessToken:  "A1",
			RefreshToken: "R1",
		},
	}

	mgr := NewManager(api, store)

	err := mgr.Register(ctx, "testuser", "a@b.com", "pw")
	require.NoError(t, err)

	assert.True(t, mgr.IsAuthenticated())
	stored := store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "A1", stored.AccessToken)
	assert.Equal(t, "R1", stored.RefreshToken)
}

func TestManager_Logout_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	}
	api := &mockAuthAPI{}
	mgr := NewManager(api, store)

	// Первый logout очищает сессию
	err := mgr.Logout(ctx)
	require.NoError(t, err)
	assert.False(t, mgr.IsAuthenticated())
	assert.Nil(t, mgr.User())
	assert.Nil(t, store.stored())

	// Повторный logout не является ошибкой и оставляет то же состояние
	err = mgr.Logout(ctx)
	require.NoError(t, err)
	assert.False(t, mgr.IsAuthenticated())
	assert.Nil(t, store.stored())
}

func TestManager_Bootstrap(t *testing.T) {
	tests := []struct {
		pair        *storage.TokenPair
		meResp      *pkgapi.MeResponse
		meErr       error
		name        string
		wantErr     bool
		wantAuth    bool
		wantStored  bool
		wantMeCalls int
	}{
		{
			name:        "no stored session",
			pair:        nil,
			wantErr:     false,
			wantAuth:    false,
			wantStored:  false,
			wantMeCalls: 0,
		},
		{
			name:        "only access token stored",
			pair:        &storage.TokenPair{AccessToken: "A1"},
			wantErr:     false,
			wantAuth:    false,
			wantStored:  false,
			wantMeCalls: 0,
		},
		{
			name:        "only refresh token stored",
			pair:        &storage.TokenPair{RefreshToken: "R1"},
			wantErr:     false,
			wantAuth:    false,
			wantStored:  false,
			wantMeCalls: 0,
		},
		{
			name:        "validation rejected",
			pair:        &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
			meErr:       fmt.Errorf("server error (401): token expired"),
			wantErr:     true,
			wantAuth:    false,
			wantStored:  false,
			wantMeCalls: 1,
		},
		{
			name:        "malformed validation response",
			pair:        &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
			meResp:      &pkgapi.MeResponse{},
			wantErr:     true,
			wantAuth:    false,
			wantStored:  false,
			wantMeCalls: 1,
		},
		{
			name:        "valid session restored",
			pair:        &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
			meResp:      &pkgapi.MeResponse{User: testUser},
			wantErr:     false,
			wantAuth:    true,
			wantStored:  true,
			wantMeCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &mockTokenStorage{pair: tt.pair}
			api := &mockAuthAPI{meResp: tt.meResp, meErr: tt.meErr}
			mgr := NewManager(api, store)

			err := mgr.Bootstrap(ctx)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantAuth, mgr.IsAuthenticated())
			if tt.wantStored {
				assert.NotNil(t, store.stored())
			} else {
				// Никогда не остаемся в полуаутентифицированном состоянии
				assert.Nil(t, store.stored())
			}
			assert.Equal(t, tt.wantMeCalls, api.meCalls)

			// isLoading снимается на любом исходе
			assert.False(t, mgr.IsLoading())
		})
	}
}

func TestManager_Bootstrap_ValidatesWithStoredToken(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	}
	api := &mockAuthAPI{meResp: &pkgapi.MeResponse{User: testUser}}
	mgr := NewManager(api, store)

	err := mgr.Bootstrap(ctx)
	require.NoError(t, err)

	// /auth/me получил именно сохраненный access token
	assert.Equal(t, "A1", api.lastMeToken)
	assert.Equal(t, testUser, mgr.User())
}

func TestManager_Refresh_Success(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	}
	api := &mockAuthAPI{
		refreshResp: &pkgapi.RefreshResponse{AccessToken: "A2"},
	}
	mgr := NewManager(api, store)

	err := mgr.Refresh(ctx)
	require.NoError(t, err)

	// Refresh шел со старым refresh token
	assert.Equal(t, "R1", api.lastRefreshToken)

	// Новый access token записан, refresh token переиспользуется
	stored := store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "A2", stored.AccessToken)
	assert.Equal(t, "R1", stored.RefreshToken)

	// AccessToken читает из хранилища свежую запись
	token, err := mgr.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
}

func TestManager_Refresh_NoRefreshToken(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{}
	api := &mockAuthAPI{}
	mgr := NewManager(api, store)

	err := mgr.Refresh(ctx)

	assert.Error(t, err)
	assert.False(t, mgr.IsAuthenticated())
	assert.Nil(t, store.stored())
	// До API дело не дошло
	assert.Equal(t, 0, api.refreshCallCount())
}

func TestManager_Refresh_APIError(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	}
	api := &mockAuthAPI{
		refreshErr: fmt.Errorf("server error (401): refresh token expired"),
	}
	mgr := NewManager(api, store)
	mgr.mu.Lock()
	mgr.user = testUser
	mgr.accessToken = "A1"
	mgr.refreshToken = "R1"
	mgr.mu.Unlock()

	err := mgr.Refresh(ctx)

	// Сбой refresh фатален для сессии: все вычищено
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token refresh failed")
	assert.False(t, mgr.IsAuthenticated())
	assert.Nil(t, mgr.User())
	assert.Nil(t, store.stored())
}

func TestManager_Refresh_SingleFlight(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	}
	api := &mockAuthAPI{
		refreshResp:  &pkgapi.RefreshResponse{AccessToken: "A2"},
		refreshDelay: 50 * time.Millisecond,
	}
	mgr := NewManager(api, store)

	// Десять конкурентных вызовов должны разделить один round-trip
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = mgr.Refresh(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, api.refreshCallCount())

	stored := store.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "A2", stored.AccessToken)
}

func TestManager_AccessToken_ReadsStore(t *testing.T) {
	ctx := context.Background()
	store := &mockTokenStorage{
		pair: &storage.TokenPair{AccessToken: "A1", RefreshToken: "R1"},
	}
	mgr := NewManager(&mockAuthAPI{}, store)

	// Память пуста, но токен берется из хранилища
	token, err := mgr.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", token)

	// Пустое хранилище — пустой токен без ошибки
	require.NoError(t, store.DeleteTokens(ctx))
	token, err = mgr.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}
