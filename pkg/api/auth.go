package api

// User представляет идентичность пользователя, подтвержденную сервером.
// Клиент никогда не собирает User из содержимого токена — только из
// ответов /auth/login, /auth/register или /auth/me.
type User struct {
	ID       int64  `json:"id"`       // идентификатор пользователя
	Username string `json:"username"` // username пользователя
	Email    string `json:"email"`    // email пользователя
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse представляет ответ /auth/login и /auth/register
type AuthResponse struct {
	User         *User  `json:"user"`          // подтвержденная идентичность
	AccessToken  string `json:"access_token"`  // короткоживущий bearer токен
	RefreshToken string `json:"refresh_token"` // долгоживущий токен для /auth/refresh
}

// RefreshResponse представляет ответ /auth/refresh.
// Сервер выдает только новый access token, refresh token остается прежним.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// MeResponse представляет ответ /auth/me
type MeResponse struct {
	User *User `json:"user"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки для пользователя
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
