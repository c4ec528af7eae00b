package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig общие параметры маршрутизаторов обоих сервисов
type RouterConfig struct {
	BasePath       string
	RequestTimeout time.Duration
	Production     bool
}

func newRouter(cfg RouterConfig, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "the requested resource was not found", logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "method not allowed", logger)
	})
	return r
}

// NewAuthRouter маршруты сервиса аутентификации
func NewAuthRouter(cfg RouterConfig, h *AuthHandler, logger *slog.Logger) http.Handler {
	r := newRouter(cfg, logger)
	r.Route(basePath(cfg.BasePath), func(r chi.Router) {
		r.Get("/", welcome("Auth", logger))
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
	})
	return r
}

// NewResourceRouter маршруты сервиса ресурсов, всё под /images требует токен
func NewResourceRouter(cfg RouterConfig, h *ImageHandler, verifier TokenVerifier, logger *slog.Logger) http.Handler {
	r := newRouter(cfg, logger)
	r.Route(basePath(cfg.BasePath), func(r chi.Router) {
		r.Get("/", welcome("Resource", logger))
		r.Route("/images", func(r chi.Router) {
			r.Use(Authenticate(verifier, cfg.Production, logger))
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/{id}", h.Get)
			r.Put("/{id}", h.Replace)
			r.Patch("/{id}", h.Patch)
			r.Delete("/{id}", h.Delete)
		})
	})
	return r
}

func basePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
