// Package transport implements the client-side auth middleware: it injects
// the bearer token into outbound requests and makes a single credential
// expiry transparent to the caller via one refresh and one retry.
package transport

import (
	"context"
	"log/slog"
	"net/http"
)

// Session is the capability the transport needs from the session manager.
// Токен читается через интерфейс при каждой отправке, а не захватывается
// значением: повтор после refresh обязан увидеть свежезаписанный токен.
type Session interface {
	// AccessToken returns the freshest persisted access token, empty when
	// the client is not authenticated
	AccessToken(ctx context.Context) (string, error)

	// Refresh exchanges the refresh token for a new access token.
	// On failure the session is fully reset before the error is returned.
	Refresh(ctx context.Context) error
}

// Credential endpoints authenticate by request body or by a token the caller
// sets explicitly. Случайный access token на них может увести сервер не в ту
// ветку аутентификации, поэтому Authorization здесь вырезается, а не ставится.
var credentialPaths = map[string]struct{}{
	"/auth/login":    {},
	"/auth/register": {},
	"/auth/refresh":  {},
}

// Transport is an http.RoundTripper that authenticates outbound requests.
//
// Lifecycle of one call: the request goes out with the current access token;
// a 401 response triggers one refresh round-trip and one retry with the
// token re-read from the store; the retry's result is returned as-is. When
// the refresh itself fails the session manager has already forced a logout
// and the caller receives the original 401. The retry is dispatched on the
// base transport directly, so a call can never be retried twice.
type Transport struct {
	base    http.RoundTripper
	session Session
}

// Compile-time check that Transport implements http.RoundTripper
var _ http.RoundTripper = (*Transport)(nil)

// New creates an authenticating transport over base.
// A nil base means http.DefaultTransport.
func New(base http.RoundTripper, session Session) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:    base,
		session: session,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	// Credential ручки: никакой инжекции, чужой Authorization вырезаем
	if _, ok := credentialPaths[req.URL.Path]; ok {
		out := req.Clone(ctx)
		out.Header.Del("Authorization")
		return t.base.RoundTrip(out)
	}

	first := req.Clone(ctx)
	if err := t.setAuthHeader(first); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	slog.Debug("unauthorized response, refreshing session",
		"method", req.Method, "path", req.URL.Path)

	// Ровно одна попытка восстановления на запрос. Если refresh не удался,
	// менеджер уже сбросил сессию — отдаем исходный 401 как есть.
	if err := t.session.Refresh(ctx); err != nil {
		slog.Warn("session refresh failed", "error", err)
		return resp, nil
	}

	retry, ok := t.retryRequest(req)
	if !ok {
		return resp, nil
	}

	// Исходный ответ больше не нужен
	_ = resp.Body.Close()

	return t.base.RoundTrip(retry)
}

// retryRequest rebuilds the original request for the single retry.
// Тело восстанавливается через GetBody; запрос с невоспроизводимым телом
// повторить нельзя, в этом случае вызывающему уходит исходный 401.
func (t *Transport) retryRequest(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			slog.Warn("failed to rewind request body for retry", "error", err)
			return nil, false
		}
		retry.Body = body
	} else if req.Body != nil {
		return nil, false
	}

	if err := t.setAuthHeader(retry); err != nil {
		slog.Warn("failed to rebuild authorization header for retry", "error", err)
		return nil, false
	}

	return retry, true
}

// setAuthHeader sets Authorization from the freshest stored token
func (t *Transport) setAuthHeader(req *http.Request) error {
	token, err := t.session.AccessToken(req.Context())
	if err != nil {
		return err
	}
	if token == "" {
		req.Header.Del("Authorization")
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}
