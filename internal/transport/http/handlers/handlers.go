package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yanxyw/loop-api/internal/service"
)

// Cookie с refresh-токеном. Path ограничен маршрутом обновления,
// чтобы браузер не отправлял токен на остальные эндпойнты.
const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/auth/refresh"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	service *service.Service

	cookieSecure    bool
	refreshTokenTTL time.Duration
}

// Options — параметры сборки хендлеров.
type Options struct {
	CookieSecure    bool
	RefreshTokenTTL time.Duration
}

func New(s *service.Service, opts Options) *Handlers {
	return &Handlers{
		service:         s,
		cookieSecure:    opts.CookieSecure,
		refreshTokenTTL: opts.RefreshTokenTTL,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// setRefreshCookie выставляет HTTP-only cookie с refresh-токеном.
func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.refreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie сбрасывает cookie с refresh-токеном.
func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
