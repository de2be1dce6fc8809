// Package http собирает HTTP-слой сервиса: роутер, мидлвары, хендлеры.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanxyw/loop-api/internal/service"
	"github.com/yanxyw/loop-api/internal/transport/http/handlers"
	"github.com/yanxyw/loop-api/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger          *slog.Logger
	Timeout         time.Duration
	CookieSecure    bool
	RefreshTokenTTL time.Duration
	BasePath        string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(s *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчики/гистограммы по маршрутам
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(s, handlers.Options{
		CookieSecure:    opts.CookieSecure,
		RefreshTokenTTL: opts.RefreshTokenTTL,
	})

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, s)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, s)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, s *service.Service) {
	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)

	r.Get("/auth/verify", h.VerifyEmail)
	r.Post("/auth/resend-verification", h.ResendVerification)

	r.Post("/auth/forgot-password", h.ForgotPassword)
	r.Post("/auth/verify-reset-code", h.VerifyResetCode)
	r.Post("/auth/reset-password", h.ResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(s))
		pr.Get("/auth/me", h.Me)
	})
}
