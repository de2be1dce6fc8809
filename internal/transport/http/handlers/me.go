package handlers

import (
	"net/http"

	"github.com/yanxyw/loop-api/internal/transport/http/httperr"
	"github.com/yanxyw/loop-api/internal/transport/http/middleware"
)

type meResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Me возвращает утверждения access-токена текущего пользователя.
// Доступен только за RequireAuth.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		// Маршрут собран без RequireAuth; это ошибка конфигурации роутера.
		httperr.WriteInternal(w, r)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		UserID:   claims.UserID.String(),
		Email:    claims.Email,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	})
}
