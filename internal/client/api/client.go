package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vkarasev/datalab/internal/client/transport"
	pkgapi "github.com/vkarasev/datalab/pkg/api"
)

// Client представляет HTTP клиент для взаимодействия с сервером DataLab.
//
// Запросы к защищенным ручкам идут через httpClient, в который UseSession
// устанавливает инжектор токена и автоматический refresh-повтор. Три
// credential ручки (/auth/login, /auth/register, /auth/refresh) и
// bootstrap-вызов /auth/me ходят через bareClient: они аутентифицируются
// либо телом запроса, либо явно переданным токеном и не должны проходить
// через reauth pipeline.
type Client struct {
	httpClient *http.Client
	bareClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
		bareClient: newHTTPClient(),
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Ограничиваем количество редиректов
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// UseSession installs the authenticating pipeline for protected endpoints.
// Вызывается один раз при сборке клиента, до первого защищенного запроса.
func (c *Client) UseSession(sess transport.Session) {
	c.httpClient.Transport = transport.New(c.httpClient.Transport, sess)
}

// Login выполняет аутентификацию пользователя.
// Credentials идут в теле запроса, без Authorization заголовка.
func (c *Client) Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.AuthResponse, error) {
	var resp pkgapi.AuthResponse
	err := c.do(ctx, c.bareClient, http.MethodPost, "/auth/login", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.AuthResponse, error) {
	var resp pkgapi.AuthResponse
	err := c.do(ctx, c.bareClient, http.MethodPost, "/auth/register", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новый access token.
// Refresh token идет явным bearer-заголовком, тело запроса пустое.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*pkgapi.RefreshResponse, error) {
	var resp pkgapi.RefreshResponse
	err := c.do(ctx, c.bareClient, http.MethodPost, "/auth/refresh", refreshToken, struct{}{}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Me проверяет access token и возвращает идентичность пользователя.
// Токен передается явно и запрос идет мимо reauth pipeline: 401 на этом
// пути (bootstrap-валидация) не должен запускать refresh.
func (c *Client) Me(ctx context.Context, accessToken string) (*pkgapi.MeResponse, error) {
	var resp pkgapi.MeResponse
	err := c.do(ctx, c.bareClient, http.MethodGet, "/auth/me", accessToken, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// CurrentUser возвращает идентичность через защищенный pipeline,
// с инжекцией токена и автоматическим refresh на 401
func (c *Client) CurrentUser(ctx context.Context) (*pkgapi.User, error) {
	var resp pkgapi.MeResponse
	err := c.do(ctx, c.httpClient, http.MethodGet, "/auth/me", "", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return resp.User, nil
}

// ListProjects возвращает проекты пользователя
func (c *Client) ListProjects(ctx context.Context) ([]pkgapi.Project, error) {
	var resp []pkgapi.Project
	err := c.do(ctx, c.httpClient, http.MethodGet, "/projects", "", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list projects request failed: %w", err)
	}
	return resp, nil
}

// CreateProject создает новый проект
func (c *Client) CreateProject(ctx context.Context, req pkgapi.CreateProjectRequest) (*pkgapi.Project, error) {
	var resp pkgapi.Project
	err := c.do(ctx, c.httpClient, http.MethodPost, "/projects", "", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("create project request failed: %w", err)
	}
	return &resp, nil
}

// DeleteProject удаляет проект
func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	url := fmt.Sprintf("/projects/%d", projectID)
	if err := c.do(ctx, c.httpClient, http.MethodDelete, url, "", nil, nil); err != nil {
		return fmt.Errorf("delete project request failed: %w", err)
	}
	return nil
}

// ListDatasets возвращает датасеты проекта
func (c *Client) ListDatasets(ctx context.Context, projectID int64) ([]pkgapi.Dataset, error) {
	var resp []pkgapi.Dataset
	url := fmt.Sprintf("/projects/%d/datasets", projectID)
	err := c.do(ctx, c.httpClient, http.MethodGet, url, "", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list datasets request failed: %w", err)
	}
	return resp, nil
}

// GetDatasetSummary возвращает посчитанную сервером статистику по датасету
func (c *Client) GetDatasetSummary(ctx context.Context, projectID, datasetID int64) (*pkgapi.DatasetSummary, error) {
	var resp pkgapi.DatasetSummary
	url := fmt.Sprintf("/projects/%d/datasets/%d/summary", projectID, datasetID)
	err := c.do(ctx, c.httpClient, http.MethodGet, url, "", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("dataset summary request failed: %w", err)
	}
	return &resp, nil
}

// do выполняет HTTP запрос через переданный http.Client
func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path, bearer string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp pkgapi.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
