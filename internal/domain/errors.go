package domain

import (
	"errors"
	"fmt"
)

// Базовые ошибки предметной области. Слои оборачивают их через fmt.Errorf("...: %w"),
// а HTTP-слой классифицирует через errors.Is.
var (
	ErrValidation         = errors.New("the request cannot be processed due to a validation error")
	ErrDuplicate          = errors.New("the resource already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenMissing       = errors.New("authentication token is missing")
	ErrTokenInvalid       = errors.New("authentication token is invalid")
	ErrTokenExpired       = errors.New("authentication token has expired")
	ErrNotFound           = errors.New("the requested resource was not found")
	ErrUpstream           = errors.New("the remote content store failed")
	ErrSigning            = errors.New("token signing key is unavailable or malformed")
)

// UpstreamError описывает неуспешный ответ удалённого хранилища контента.
// StatusCode равен 0, если ответа не было (таймаут или сетевая ошибка).
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: remote content store returned status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: remote content store unreachable: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + ErrUpstream.Error()
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is позволяет сопоставлять UpstreamError с ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// NewValidationError оборачивает ErrValidation сообщением для клиента.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
