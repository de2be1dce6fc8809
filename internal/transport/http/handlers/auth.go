package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yanxyw/loop-api/internal/service"
	"github.com/yanxyw/loop-api/internal/transport/http/httperr"
)

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPairResponse struct {
	UserID          string `json:"user_id"`
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresAt int64  `json:"access_expires_at"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Signup регистрирует пользователя и запускает подтверждение email.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidEmail)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), in.Email, in.Username, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		UserID:  userID.String(),
		Message: "verification email sent",
	})
}

// Login выполняет вход и выдаёт пару токенов.
// Refresh-токен дублируется в HTTP-only cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, service.ErrInvalidCredentials)
		return
	}

	pair, userID, err := h.service.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenPairResponse{
		UserID:          userID.String(),
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
	})
}

// Refresh ротирует refresh-токен и выдаёт новую пару.
// Токен берётся из тела запроса либо из cookie.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFromRequest(r)
	if token == "" {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	pair, userID, err := h.service.RefreshToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			h.clearRefreshCookie(w)
		}
		httperr.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, tokenPairResponse{
		UserID:          userID.String(),
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
	})
}

// Logout завершает сессию по refresh-токену из Authorization: Bearer.
// Некорректный заголовок — 401; в остальном ответ всегда 200,
// независимо от того, существовал ли токен.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// refreshTokenFromRequest достаёт refresh-токен из JSON-тела,
// затем из cookie. Тело имеет приоритет.
func (h *Handlers) refreshTokenFromRequest(r *http.Request) string {
	var in refreshRequest
	if err := decodeStrict(r, &in); err == nil && in.RefreshToken != "" {
		return in.RefreshToken
	}

	if c, err := r.Cookie(refreshCookieName); err == nil {
		return c.Value
	}

	return ""
}

// bearerToken разбирает заголовок Authorization: Bearer <token>.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}

	return token, true
}
