package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/yanxyw/loop-api/internal/service"
	"github.com/yanxyw/loop-api/internal/transport/http/httperr"
)

// CtxClaims — ключ контекста с утверждениями проверенного access-токена.
const CtxClaims ctxKey = "claims"

// tokenValidator проверяет access-токен и возвращает его утверждения.
type tokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*service.TokenClaims, error)
}

// RequireAuth извлекает Bearer-токен из Authorization, валидирует его
// и кладёт утверждения в контекст по ключу CtxClaims.
// Отсутствующий или невалидный токен — 401 без вызова обработчика.
func RequireAuth(v tokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				httperr.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			claims, err := v.ValidateToken(r.Context(), token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom достаёт утверждения из контекста запроса.
func ClaimsFrom(ctx context.Context) (*service.TokenClaims, bool) {
	claims, ok := ctx.Value(CtxClaims).(*service.TokenClaims)
	return claims, ok
}
