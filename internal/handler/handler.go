package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

const (
	// AuthBodyLimit предел тела запроса сервиса аутентификации
	AuthBodyLimit int64 = 500 << 10
	// ResourceBodyLimit предел тела запроса сервиса ресурсов, данные изображения идут в base64
	ResourceBodyLimit int64 = 10 << 20

	unexpectedMessage = "An unexpected condition was encountered"
)

// errorResponse тело ответа с ошибкой. Detail и Chain заполняются только вне production.
type errorResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Detail  string   `json:"detail,omitempty"`
	Chain   []string `json:"chain,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// respondWithJSON отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload any, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, errorResponse{Status: code, Message: message}, logger)
}

// respondWithDomainError переводит ошибку слоя бизнес-логики в HTTP-ответ.
// В production неклассифицированные ошибки схлопываются в общий 500 без подробностей.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error, production bool, logger *slog.Logger) {
	status, message, classified := classifyError(err)

	attrs := []any{"status", status, "error", err, "request_id", middleware.GetReqID(r.Context())}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	body := errorResponse{Status: status, Message: message}
	if !classified && production {
		body.Message = unexpectedMessage
	}
	if !production {
		body.Detail = err.Error()
		body.Chain = errorChain(err)
	}
	respondWithJSON(w, status, body, logger)
}

// classifyError возвращает статус и публичное сообщение.
func classifyError(err error) (status int, message string, classified bool) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, validationMessage(err), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error(), true
	case errors.Is(err, domain.ErrTokenMissing):
		return http.StatusUnauthorized, domain.ErrTokenMissing.Error(), true
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusForbidden, domain.ErrTokenExpired.Error(), true
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusForbidden, domain.ErrTokenInvalid.Error(), true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.ErrNotFound.Error(), true
	case errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict, domain.ErrDuplicate.Error(), true
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, domain.ErrUpstream.Error(), true
	default:
		return http.StatusInternalServerError, unexpectedMessage, false
	}
}

// validationMessage отрезает внутренние префиксы обёрток, оставляя текст для клиента
func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, domain.ErrValidation.Error()); idx >= 0 {
		return msg[idx:]
	}
	return domain.ErrValidation.Error()
}

// errorChain раскладывает цепочку обёрток по слоям
func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				chain = append(chain, errorChain(inner)...)
			}
			return chain
		default:
			return chain
		}
	}
	return chain
}

// decodeJSON читает ровно один JSON-объект без неизвестных полей и не больше limit байт.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.NewValidationError("request body must not exceed %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return domain.NewValidationError("request body must not be empty")
		default:
			return domain.NewValidationError("malformed request body: %v", err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}

func welcome(service string, logger *slog.Logger) http.HandlerFunc {
	message := fmt.Sprintf("Hooray! Welcome to version 1 of this very simple RESTful API! (%s)", service)
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, messageResponse{Message: message}, logger)
	}
}
