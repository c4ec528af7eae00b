package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/PictureIt/internal/auth"
	"github.com/GoArmGo/PictureIt/internal/domain"
)

// TokenVerifier проверяет токен доступа
type TokenVerifier interface {
	Verify(rawToken string) (*auth.Claims, error)
}

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID кладёт id проверенного пользователя в контекст запроса
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext возвращает id пользователя из контекста или пустую строку
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// RequestLogger middleware для логирования HTTP-запросов.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Authenticate пропускает запрос дальше только с действительным токеном.
// Нет токена: 401. Токен недействителен или истёк: 403.
func Authenticate(verifier TokenVerifier, production bool, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := extractToken(r)
			if err != nil {
				respondWithDomainError(w, r, err, production, logger)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				respondWithDomainError(w, r, err, production, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// extractToken читает Authorization: Bearer, при отсутствии заголовка cookie jwtToken
func extractToken(r *http.Request) (string, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		// "Bearer" без значения означает, что токен не передан
		scheme, token, _ := strings.Cut(header, " ")
		if !strings.EqualFold(scheme, "Bearer") {
			return "", domain.ErrTokenInvalid
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return "", domain.ErrTokenMissing
		}
		return token, nil
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", domain.ErrTokenMissing
}
